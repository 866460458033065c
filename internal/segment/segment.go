// Package segment partitions page-ordered regulation text into articles,
// using "Artikel N" headings as the only structural signal.
package segment

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/regindex/internal/doctree"
	"github.com/dgallion1/regindex/internal/textnorm"
)

// headingPattern matches the start of article headings such as "Artikel 12"
// or "  ARTIKEL 3 Definitioner". Shared read-only across goroutines. RE2's \b
// is ASCII-only, so the word boundary after the number is checked by
// ParseHeading instead.
var headingPattern = regexp.MustCompile(`(?i)^\s*Artikel\s+(\d+)`)

// ParseHeading reports whether line opens a new article and, if so, its number.
// A heading whose number does not fit in an int is not a heading.
func ParseHeading(line string) (int, bool) {
	m := headingPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return 0, false
	}
	if next, _ := utf8.DecodeRuneInString(line[m[1]:]); isWordRune(next) {
		return 0, false
	}
	n, err := strconv.Atoi(line[m[2]:m[3]])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// State is the accumulator's position in its idle → open → flushed cycle.
type State int

const (
	StateIdle State = iota
	StateOpen
	StateFlushed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateFlushed:
		return "flushed"
	}
	return "unknown"
}

// Accumulator builds articles one line at a time. It holds at most one open
// article; the zero value is ready to use. Not safe for concurrent use.
type Accumulator struct {
	state    State
	number   int
	pageFrom int
	pageTo   int
	lines    []string
	articles []doctree.Article
}

// State returns the current state.
func (a *Accumulator) State() State {
	return a.state
}

// Feed processes one line of page pageNo.
func (a *Accumulator) Feed(pageNo int, line string) {
	if n, ok := ParseHeading(line); ok {
		a.Flush()
		a.state = StateOpen
		a.number = n
		a.pageFrom = pageNo
		a.pageTo = pageNo
		a.lines = []string{line}
		return
	}
	if a.state != StateOpen {
		// Preamble before the first heading belongs to no article.
		return
	}
	a.lines = append(a.lines, line)
	if pageNo > a.pageTo {
		a.pageTo = pageNo
	}
}

// Flush finalizes the open article, if any. An article with nothing after its
// "Artikel N" token is dropped as extraction noise.
func (a *Accumulator) Flush() {
	if a.state != StateOpen {
		return
	}
	text := textnorm.Normalize(strings.Join(a.lines, "\n"))
	if a.hasBody() {
		a.articles = append(a.articles, doctree.Article{
			Number:   a.number,
			PageFrom: a.pageFrom,
			PageTo:   a.pageTo,
			Text:     text,
		})
	}
	a.state = StateFlushed
	a.number, a.pageFrom, a.pageTo = 0, 0, 0
	a.lines = nil
}

func (a *Accumulator) hasBody() bool {
	if len(a.lines) == 0 {
		return false
	}
	if strings.TrimSpace(headingPattern.ReplaceAllLiteralString(a.lines[0], "")) != "" {
		return true
	}
	for _, l := range a.lines[1:] {
		if textnorm.Normalize(l) != "" {
			return true
		}
	}
	return false
}

// Articles returns the completed articles in heading order. The open article,
// if any, is not included until Flush.
func (a *Accumulator) Articles() []doctree.Article {
	return a.articles
}

// Segment splits pages into articles. Pages must be in reading order.
// It never fails: input without headings yields no articles.
func Segment(pages []doctree.Page) []doctree.Article {
	var acc Accumulator
	for _, p := range pages {
		if p.Text == "" {
			continue
		}
		for _, line := range strings.Split(p.Text, "\n") {
			acc.Feed(p.Number, line)
		}
	}
	acc.Flush()
	return acc.Articles()
}
