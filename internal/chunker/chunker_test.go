package chunker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode"

	"github.com/dgallion1/regindex/internal/doctree"
)

func mustNew(t *testing.T, cfg Config) *Splitter {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// reassemble drops the trailing overlap of every chunk but the last and
// concatenates the rest.
func reassemble(chunks []doctree.Chunk, overlap int) string {
	var sb strings.Builder
	for i, c := range chunks {
		r := []rune(c.Text)
		if i < len(chunks)-1 {
			r = r[:len(r)-overlap]
		}
		sb.WriteString(string(r))
	}
	return sb.String()
}

func TestNew_RejectsNonProgressingConfig(t *testing.T) {
	bad := []Config{
		{MaxChars: 200, Overlap: 200},
		{MaxChars: 100, Overlap: 500},
		{MaxChars: 0, Overlap: 0},
		{MaxChars: 100, Overlap: -1},
	}
	for _, cfg := range bad {
		s, err := New(cfg)
		if err == nil {
			t.Errorf("config %+v: expected error, got splitter %+v", cfg, s)
			continue
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("config %+v: expected ErrInvalidConfig, got %v", cfg, err)
		}
	}
}

func TestNew_AcceptsDefaults(t *testing.T) {
	s := mustNew(t, DefaultConfig())
	if s.Config().MaxChars != 1400 || s.Config().Overlap != 200 {
		t.Errorf("unexpected defaults %+v", s.Config())
	}
	mustNew(t, Config{MaxChars: 10, Overlap: 0})
}

func TestSplit_EmptyArticle(t *testing.T) {
	s := mustNew(t, DefaultConfig())
	if got := s.Split(doctree.Article{Number: 1, PageFrom: 1, PageTo: 1}); len(got) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(got))
	}
	if got := s.Split(doctree.Article{Number: 1, PageFrom: 1, PageTo: 1, Text: " \n\n "}); len(got) != 0 {
		t.Errorf("expected 0 chunks for whitespace text, got %d", len(got))
	}
}

func TestSplit_ShortArticleSingleChunk(t *testing.T) {
	text := "Artikel 1 " + strings.Repeat("x", 1399-len("Artikel 1 "))
	if n := len([]rune(text)); n != 1399 {
		t.Fatalf("test setup: expected 1399 runes, got %d", n)
	}
	s := mustNew(t, DefaultConfig())
	chunks := s.Split(doctree.Article{Number: 1, PageFrom: 4, PageTo: 5, Text: text})

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Text != strings.TrimSpace(text) {
		t.Errorf("expected chunk text to equal trimmed article text")
	}
	if c.ID != "art1_p4_c1" {
		t.Errorf("expected id %q, got %q", "art1_p4_c1", c.ID)
	}
	if c.ChunkIndex != 1 || c.Article != 1 || c.PageFrom != 4 || c.PageTo != 5 {
		t.Errorf("unexpected metadata %+v", c)
	}
}

func TestSplit_HardCutReassembles(t *testing.T) {
	text := strings.Repeat("abcdefghij", 300) // 3000 runes, no sentence ends
	s := mustNew(t, DefaultConfig())
	chunks := s.Split(doctree.Article{Number: 2, PageFrom: 1, PageTo: 1, Text: text})

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := len([]rune(c.Text)); n > 1400 {
			t.Errorf("chunk %d: %d chars exceeds max", i, n)
		}
		if c.ChunkIndex != i+1 {
			t.Errorf("chunk %d: expected index %d, got %d", i, i+1, c.ChunkIndex)
		}
	}
	if got := reassemble(chunks, 200); got != text {
		t.Errorf("reassembled text does not match input (len %d vs %d)", len(got), len(text))
	}
}

func TestSplit_PrefersSentenceBoundary(t *testing.T) {
	// 11 runes per sentence, including non-ASCII letters.
	text := strings.TrimSpace(strings.Repeat("æøåbcdefg. ", 200))
	s := mustNew(t, DefaultConfig())
	chunks := s.Split(doctree.Article{Number: 18, PageFrom: 7, PageTo: 8, Text: text})

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, "fg.") {
		t.Errorf("expected first chunk to end on a sentence terminator, got ...%q", lastRunes(chunks[0].Text, 10))
	}
	if n := len([]rune(chunks[0].Text)); n != 1396 {
		t.Errorf("expected first chunk of 1396 runes, got %d", n)
	}
	if got := reassemble(chunks, 200); stripSpace(got) != stripSpace(text) {
		t.Errorf("reassembled text does not match input")
	}
	if chunks[1].ID != "art18_p7_c2" {
		t.Errorf("expected id %q, got %q", "art18_p7_c2", chunks[1].ID)
	}
}

func TestSplit_EarlySentenceEndIgnored(t *testing.T) {
	// Only terminator sits within the first 200 characters of the window.
	text := strings.Repeat("a", 150) + ". " + strings.Repeat("b", 2000)
	s := mustNew(t, DefaultConfig())
	chunks := s.Split(doctree.Article{Number: 1, PageFrom: 1, PageTo: 1, Text: text})

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if n := len([]rune(chunks[0].Text)); n != 1400 {
		t.Errorf("expected hard cutoff at 1400, got chunk of %d", n)
	}
}

func TestSplit_OnlyFullStopIsCutPoint(t *testing.T) {
	text := strings.Repeat("a", 500) + ". " + strings.Repeat("b", 500) + "? " + strings.Repeat("c", 500) + "! " + strings.Repeat("d", 1000)
	s := mustNew(t, DefaultConfig())
	chunks := s.Split(doctree.Article{Number: 3, PageFrom: 1, PageTo: 1, Text: text})

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if n := len([]rune(chunks[0].Text)); n != 501 {
		t.Errorf("expected first chunk to end at the full stop (501 runes), got %d ending ...%q", n, lastRunes(chunks[0].Text, 5))
	}
	for _, c := range chunks[:len(chunks)-1] {
		if strings.HasSuffix(c.Text, "?") || strings.HasSuffix(c.Text, "!") {
			t.Errorf("chunk %s was cut at ...%q", c.ID, lastRunes(c.Text, 5))
		}
	}
}

func TestWindows_StrictProgress(t *testing.T) {
	texts := []string{
		strings.Repeat("Kort. ", 2000),
		strings.Repeat("abcdefghi. ", 700),
		strings.Repeat("z", 5000),
		strings.Repeat("Stk. 1. Passageren har ret! Hvorfor? ", 300),
		strings.Repeat("Hvorfor? Derfor! ", 400),
	}
	configs := []Config{
		DefaultConfig(),
		{MaxChars: 1400, Overlap: 1000},
		{MaxChars: 300, Overlap: 299},
		{MaxChars: 50, Overlap: 0},
		{MaxChars: 1, Overlap: 0},
	}
	for _, cfg := range configs {
		s := mustNew(t, cfg)
		for ti, text := range texts {
			runes := []rune(text)
			ws := s.windows(runes)
			if len(ws) == 0 {
				t.Fatalf("cfg %+v text %d: expected windows", cfg, ti)
			}
			for k, w := range ws {
				if w.end <= w.start || w.end-w.start > cfg.MaxChars {
					t.Fatalf("cfg %+v text %d: bad window %d %+v", cfg, ti, k, w)
				}
				if k == 0 {
					continue
				}
				prev := ws[k-1]
				if w.start <= prev.start {
					t.Fatalf("cfg %+v text %d: cursor did not advance at window %d (%d -> %d)", cfg, ti, k, prev.start, w.start)
				}
				if w.start != prev.end-cfg.Overlap {
					t.Fatalf("cfg %+v text %d: window %d starts at %d, expected %d", cfg, ti, k, w.start, prev.end-cfg.Overlap)
				}
			}
			if last := ws[len(ws)-1]; last.end != len(runes) {
				t.Fatalf("cfg %+v text %d: last window ends at %d, expected %d", cfg, ti, last.end, len(runes))
			}
		}
	}
}

func TestSplitAll_PreservesArticleOrderAndUniqueIDs(t *testing.T) {
	var articles []doctree.Article
	for n := 1; n <= 25; n++ {
		articles = append(articles, doctree.Article{
			Number:   n,
			PageFrom: n,
			PageTo:   n + 1,
			Text:     fmt.Sprintf("Artikel %d\n", n) + strings.Repeat("Tekst om passagerrettigheder. ", n*10),
		})
	}
	// A repeated article number on another page must still get distinct ids.
	articles = append(articles, doctree.Article{Number: 3, PageFrom: 40, PageTo: 40, Text: "Artikel 3\nGentaget."})

	s := mustNew(t, DefaultConfig())
	chunks, err := s.SplitAll(context.Background(), articles, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sequential []doctree.Chunk
	for _, a := range articles {
		sequential = append(sequential, s.Split(a)...)
	}
	if len(chunks) != len(sequential) {
		t.Fatalf("expected %d chunks, got %d", len(sequential), len(chunks))
	}
	seen := make(map[string]bool)
	for i := range chunks {
		if chunks[i] != sequential[i] {
			t.Fatalf("chunk %d: parallel result %q differs from sequential %q", i, chunks[i].ID, sequential[i].ID)
		}
		if seen[chunks[i].ID] {
			t.Errorf("duplicate chunk id %q", chunks[i].ID)
		}
		seen[chunks[i].ID] = true
		if chunks[i].Text == "" {
			t.Errorf("chunk %q has empty text", chunks[i].ID)
		}
	}
}

func TestSplitAll_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := mustNew(t, DefaultConfig())
	_, err := s.SplitAll(ctx, []doctree.Article{{Number: 1, PageFrom: 1, PageTo: 1, Text: "Artikel 1 tekst"}}, 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSplitAll_Empty(t *testing.T) {
	s := mustNew(t, DefaultConfig())
	chunks, err := s.SplitAll(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
