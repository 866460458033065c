package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/regindex/internal/chunker"
	"github.com/dgallion1/regindex/internal/doctree"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(chunker.DefaultConfig(), 2, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return b
}

func pages(texts ...string) []doctree.Page {
	out := make([]doctree.Page, len(texts))
	for i, s := range texts {
		out[i] = doctree.Page{Number: i + 1, Text: s}
	}
	return out
}

var testSource = doctree.Source{Celex: "32021R0782", Lang: "DA", PDFPath: "files/CELEX_32021R0782_DA_TXT.pdf"}

func TestBuild_PreambleIgnored(t *testing.T) {
	b := newTestBuilder(t)
	idx, err := b.Build(context.Background(), testSource, pages(
		"Forord... ignoreres.",
		"Artikel 1\nIndhold A.",
		"Artikel 2\nIndhold B.",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if idx.Source != testSource {
		t.Errorf("expected source %+v, got %+v", testSource, idx.Source)
	}
	want := doctree.Stats{Pages: 3, ArticlesFound: 2, Chunks: 2}
	if idx.Stats != want {
		t.Errorf("expected stats %+v, got %+v", want, idx.Stats)
	}
	if len(idx.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(idx.Chunks))
	}

	first, second := idx.Chunks[0], idx.Chunks[1]
	if first.ID != "art1_p2_c1" || first.Article != 1 || first.PageFrom != 2 || first.PageTo != 2 {
		t.Errorf("unexpected first chunk %+v", first)
	}
	if first.Text != "Artikel 1\nIndhold A." {
		t.Errorf("expected first chunk text %q, got %q", "Artikel 1\nIndhold A.", first.Text)
	}
	if second.ID != "art2_p3_c1" || second.Article != 2 || second.PageFrom != 3 {
		t.Errorf("unexpected second chunk %+v", second)
	}
	for _, c := range idx.Chunks {
		if strings.Contains(c.Text, "Forord") {
			t.Errorf("preamble leaked into chunk %s", c.ID)
		}
	}
}

func TestBuild_EmptyArticleDiscarded(t *testing.T) {
	b := newTestBuilder(t)
	idx, err := b.Build(context.Background(), testSource, pages(
		"Artikel 5\n   \nArtikel 6\nTekst om refusion.",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Stats.ArticlesFound != 1 {
		t.Errorf("expected 1 article, got %d", idx.Stats.ArticlesFound)
	}
	for _, c := range idx.Chunks {
		if c.Article == 5 {
			t.Errorf("expected no chunk for article 5, got %s", c.ID)
		}
	}
}

func TestBuild_NormalizesPages(t *testing.T) {
	b := newTestBuilder(t)
	idx, err := b.Build(context.Background(), testSource, pages(
		"Artikel 3\nPassagerer   har\tret\n\n\n\ntil hjælp.",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx.Chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(idx.Chunks))
	}
	want := "Artikel 3\nPassagerer har ret\n\ntil hjælp."
	if idx.Chunks[0].Text != want {
		t.Errorf("expected %q, got %q", want, idx.Chunks[0].Text)
	}
}

func TestBuild_NoHeadings(t *testing.T) {
	b := newTestBuilder(t)
	idx, err := b.Build(context.Background(), testSource, pages("Indholdsfortegnelse", "", "Bilag I"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Stats.Pages != 3 || idx.Stats.ArticlesFound != 0 || idx.Stats.Chunks != 0 {
		t.Errorf("unexpected stats %+v", idx.Stats)
	}
	if idx.Chunks == nil {
		t.Error("expected empty, non-nil chunk slice")
	}
}

func TestBuild_LongArticlesHaveUniqueIDs(t *testing.T) {
	b := newTestBuilder(t)
	body := strings.Repeat("Jernbanevirksomheden skal yde erstatning. ", 120)
	idx, err := b.Build(context.Background(), testSource, pages(
		"Artikel 18\n"+body,
		"Artikel 19\n"+body,
		body,
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Stats.Chunks != len(idx.Chunks) {
		t.Errorf("expected stats.chunks %d to equal len(chunks) %d", idx.Stats.Chunks, len(idx.Chunks))
	}
	if len(idx.Chunks) < 4 {
		t.Fatalf("expected long articles to split, got %d chunks", len(idx.Chunks))
	}

	seen := make(map[string]bool)
	lastArticle := 0
	for _, c := range idx.Chunks {
		if seen[c.ID] {
			t.Errorf("duplicate chunk id %s", c.ID)
		}
		seen[c.ID] = true
		if c.Article < lastArticle {
			t.Errorf("chunk %s out of article order", c.ID)
		}
		lastArticle = c.Article
		if n := len([]rune(c.Text)); n > 1400 {
			t.Errorf("chunk %s has %d characters, want <= 1400", c.ID, n)
		}
	}
	last := idx.Chunks[len(idx.Chunks)-1]
	if last.Article != 19 || last.PageTo != 3 {
		t.Errorf("expected article 19 to end on page 3, got %+v", last)
	}
}

func TestBuild_CanceledContext(t *testing.T) {
	b := newTestBuilder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Build(ctx, testSource, pages("Artikel 1\nIndhold."))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewBuilder_InvalidConfig(t *testing.T) {
	_, err := NewBuilder(chunker.Config{MaxChars: 100, Overlap: 100}, 1, discardLogger())
	if !errors.Is(err, chunker.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestAssemble_StatsFromSlices(t *testing.T) {
	idx := Assemble(testSource, pages("a", "b"), []doctree.Article{{Number: 1}}, nil)
	if idx.Stats.Pages != 2 || idx.Stats.ArticlesFound != 1 || idx.Stats.Chunks != 0 {
		t.Errorf("unexpected stats %+v", idx.Stats)
	}
	if idx.Chunks == nil {
		t.Error("expected nil chunks to become an empty slice")
	}
}

func TestBuild_RepeatedHeadingOnSamePageGetsDistinctIDs(t *testing.T) {
	b := newTestBuilder(t)
	idx, err := b.Build(context.Background(), testSource, pages(
		"Artikel 5\nFørste tekst.\nArtikel 5\nAnden tekst.",
		"Artikel 6\nTredje tekst.",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Stats.ArticlesFound != 3 {
		t.Fatalf("expected 3 articles, got %d", idx.Stats.ArticlesFound)
	}

	want := []struct {
		id         string
		chunkIndex int
		text       string
	}{
		{"art5_p1_c1", 1, "Artikel 5\nFørste tekst."},
		{"art5_p1_c2", 1, "Artikel 5\nAnden tekst."},
		{"art6_p2_c1", 1, "Artikel 6\nTredje tekst."},
	}
	if len(idx.Chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(idx.Chunks))
	}
	seen := make(map[string]bool)
	for i, w := range want {
		c := idx.Chunks[i]
		if seen[c.ID] {
			t.Errorf("duplicate chunk id %s", c.ID)
		}
		seen[c.ID] = true
		if c.ID != w.id || c.ChunkIndex != w.chunkIndex || c.Text != w.text {
			t.Errorf("chunk %d: expected %s/%d/%q, got %s/%d/%q", i, w.id, w.chunkIndex, w.text, c.ID, c.ChunkIndex, c.Text)
		}
	}
}

func TestAssemble_KeepsUniqueIDsUnchanged(t *testing.T) {
	chunks := []doctree.Chunk{
		{ID: "art1_p1_c1", Article: 1, ChunkIndex: 1, PageFrom: 1},
		{ID: "art1_p1_c2", Article: 1, ChunkIndex: 2, PageFrom: 1},
		{ID: "art2_p3_c1", Article: 2, ChunkIndex: 1, PageFrom: 3},
	}
	idx := Assemble(testSource, pages("a", "b", "c"), []doctree.Article{{Number: 1}, {Number: 2}}, chunks)
	for i, id := range []string{"art1_p1_c1", "art1_p1_c2", "art2_p3_c1"} {
		if idx.Chunks[i].ID != id {
			t.Errorf("chunk %d: expected id %q, got %q", i, id, idx.Chunks[i].ID)
		}
	}
}
