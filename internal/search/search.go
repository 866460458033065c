// Package search answers keyword queries and citation lookups against a
// chunk index held in memory.
package search

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dgallion1/regindex/internal/doctree"
	"github.com/dgallion1/regindex/internal/query"
	"github.com/dgallion1/regindex/internal/store"
)

// ErrNotFound is returned by Quote for unknown chunk ids.
var ErrNotFound = errors.New("chunk not found")

// Load error codes reported by Open.
const (
	CodeMissingIndex = "missing_index"
	CodeInvalidIndex = "invalid_index"
)

// Scoring weights.
const (
	articleBonus   = 50
	maxTermCount   = 6
	numericWeight  = 4
	longTermWeight = 3
	termWeight     = 2
	longTermLen    = 6
)

// articleHint matches an explicit article reference such as "artikel 19" or
// "art. 9".
var articleHint = regexp.MustCompile(`(?i)\b(?:artikel|art\.?)\s*(\d{1,2})\b`)

// LoadError describes why an index could not be loaded from disk.
type LoadError struct {
	Code string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Hit is one ranked search result.
type Hit struct {
	ID       string `json:"id"`
	Article  int    `json:"article"`
	PageFrom int    `json:"page_from"`
	PageTo   int    `json:"page_to"`
	Score    int    `json:"score"`
	Text     string `json:"text"`
}

// Searcher holds one index and serves queries against it. It is safe for
// concurrent use; Replace swaps the index atomically.
type Searcher struct {
	mu      sync.RWMutex
	idx     doctree.Index
	byID    map[string]int
	loadErr *LoadError
}

// New returns a Searcher over idx.
func New(idx doctree.Index) *Searcher {
	s := &Searcher{}
	s.Replace(idx)
	return s
}

// Open loads the index at path. A missing or unreadable index does not fail:
// the Searcher starts empty and LoadErr reports the cause.
func Open(path string) *Searcher {
	idx, err := store.LoadJSON(path)
	if err == nil {
		return New(idx)
	}
	code := CodeInvalidIndex
	if errors.Is(err, fs.ErrNotExist) {
		code = CodeMissingIndex
	}
	s := New(doctree.Index{})
	s.loadErr = &LoadError{Code: code, Path: path, Err: err}
	return s
}

// Replace swaps in a new index and clears any load error.
func (s *Searcher) Replace(idx doctree.Index) {
	if idx.Chunks == nil {
		idx.Chunks = []doctree.Chunk{}
	}
	byID := make(map[string]int, len(idx.Chunks))
	for i, c := range idx.Chunks {
		if _, dup := byID[c.ID]; !dup {
			byID[c.ID] = i
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = idx
	s.byID = byID
	s.loadErr = nil
}

// LoadErr returns the error from Open, or nil.
func (s *Searcher) LoadErr() *LoadError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Source returns the provenance of the current index.
func (s *Searcher) Source() doctree.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Source
}

// Stats returns the summary counts of the current index.
func (s *Searcher) Stats() doctree.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Stats
}

// Len returns the number of searchable chunks.
func (s *Searcher) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idx.Chunks)
}

// Search ranks chunks against q and returns at most limit hits, best first.
// Chunks with no match are omitted. Ties keep index order.
func (s *Searcher) Search(q string, limit int) []Hit {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	limit = max(1, limit)

	wantArticle := 0
	if m := articleHint.FindStringSubmatch(q); m != nil {
		wantArticle, _ = strconv.Atoi(m[1])
	}

	terms := query.Terms(q)
	if len(terms) == 0 {
		terms = []string{strings.ToLower(q)}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []Hit
	for _, c := range s.idx.Chunks {
		if c.Text == "" {
			continue
		}
		score := 0
		if wantArticle > 0 && c.Article == wantArticle {
			score += articleBonus
		}
		lower := strings.ToLower(c.Text)
		for _, t := range terms {
			if n := strings.Count(lower, t); n > 0 {
				score += min(maxTermCount, n) * weight(t)
			}
		}
		if score <= 0 {
			continue
		}
		hits = append(hits, Hit{
			ID:       c.ID,
			Article:  c.Article,
			PageFrom: c.PageFrom,
			PageTo:   c.PageTo,
			Score:    score,
			Text:     c.Text,
		})
	}

	slices.SortStableFunc(hits, func(a, b Hit) int {
		return b.Score - a.Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func weight(term string) int {
	switch {
	case query.IsNumeric(term):
		return numericWeight
	case utf8.RuneCountInString(term) >= longTermLen:
		return longTermWeight
	default:
		return termWeight
	}
}

// Quote returns the chunk with the given id.
func (s *Searcher) Quote(id string) (doctree.Chunk, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return doctree.Chunk{}, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return doctree.Chunk{}, ErrNotFound
	}
	return s.idx.Chunks[i], nil
}
