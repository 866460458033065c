package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/regindex/internal/chunker"
	"github.com/dgallion1/regindex/internal/doctree"
	"github.com/dgallion1/regindex/internal/segment"
	"github.com/dgallion1/regindex/internal/textnorm"
)

// Builder turns extracted pages into a chunk index.
type Builder struct {
	splitter *chunker.Splitter
	workers  int
	log      *slog.Logger
}

// NewBuilder validates cfg and returns a Builder that splits articles with
// up to workers goroutines.
func NewBuilder(cfg chunker.Config, workers int, log *slog.Logger) (*Builder, error) {
	s, err := chunker.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("new builder: %w", err)
	}
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Builder{splitter: s, workers: workers, log: log}, nil
}

// Config returns the chunking configuration in use.
func (b *Builder) Config() chunker.Config {
	return b.splitter.Config()
}

// Build normalizes pages, segments them into articles, splits the articles
// and assembles the index.
func (b *Builder) Build(ctx context.Context, src doctree.Source, pages []doctree.Page) (doctree.Index, error) {
	return b.build(ctx, src, pages, nil)
}

// build is Build with a callback invoked as each stage begins.
func (b *Builder) build(ctx context.Context, src doctree.Source, pages []doctree.Page, stage func(JobStatus)) (doctree.Index, error) {
	if stage == nil {
		stage = func(JobStatus) {}
	}

	stage(StatusSegmenting)
	normalized := make([]doctree.Page, len(pages))
	for i, p := range pages {
		normalized[i] = doctree.Page{Number: p.Number, Text: textnorm.Normalize(p.Text)}
	}

	articles := segment.Segment(normalized)
	b.log.Info("segmented pages", "pages", len(normalized), "articles", len(articles))

	stage(StatusChunking)
	chunks, err := b.splitter.SplitAll(ctx, articles, b.workers)
	if err != nil {
		return doctree.Index{}, err
	}

	idx := Assemble(src, normalized, articles, chunks)
	b.log.Info("index built",
		"celex", src.Celex,
		"pages", idx.Stats.Pages,
		"articles", idx.Stats.ArticlesFound,
		"chunks", idx.Stats.Chunks,
	)
	return idx, nil
}
