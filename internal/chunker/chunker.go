package chunker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/regindex/internal/doctree"
	"github.com/dgallion1/regindex/internal/textnorm"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidConfig is returned for configurations that cannot make progress.
var ErrInvalidConfig = errors.New("invalid chunker config")

// minSentenceBreak is how far into a window a sentence end must be before
// it is preferred over the hard cutoff.
const minSentenceBreak = 200

// Config controls chunking behavior. Sizes are in characters (runes).
type Config struct {
	MaxChars int // Upper bound on chunk length.
	Overlap  int // Characters repeated at the start of the next chunk.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxChars: 1400,
		Overlap:  200,
	}
}

// Validate checks that the splitting loop is guaranteed to advance.
func (c Config) Validate() error {
	if c.MaxChars <= 0 {
		return fmt.Errorf("%w: max_chars must be > 0, got %d", ErrInvalidConfig, c.MaxChars)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must be >= 0, got %d", ErrInvalidConfig, c.Overlap)
	}
	if c.Overlap >= c.MaxChars {
		return fmt.Errorf("%w: overlap (%d) must be < max_chars (%d)", ErrInvalidConfig, c.Overlap, c.MaxChars)
	}
	return nil
}

// Splitter turns articles into bounded, overlapping chunks.
// It holds no mutable state and is safe for concurrent use.
type Splitter struct {
	cfg Config
}

// New returns a Splitter, rejecting configs that cannot make progress.
func New(cfg Config) (*Splitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{cfg: cfg}, nil
}

// Config returns the splitter's configuration.
func (s *Splitter) Config() Config {
	return s.cfg
}

// ChunkID builds the stable identifier for a chunk.
func ChunkID(article, pageFrom, index int) string {
	return fmt.Sprintf("art%d_p%d_c%d", article, pageFrom, index)
}

// Split breaks one article into chunks, preferring sentence ends as cut points.
func (s *Splitter) Split(a doctree.Article) []doctree.Chunk {
	text := []rune(textnorm.Normalize(a.Text))

	var chunks []doctree.Chunk
	index := 1
	for _, w := range s.windows(text) {
		payload := strings.TrimSpace(string(text[w.start:w.end]))
		if payload == "" {
			continue
		}
		chunks = append(chunks, doctree.Chunk{
			ID:         ChunkID(a.Number, a.PageFrom, index),
			Article:    a.Number,
			ChunkIndex: index,
			PageFrom:   a.PageFrom,
			PageTo:     a.PageTo,
			Text:       payload,
		})
		index++
	}
	return chunks
}

// window is a half-open rune range [start, end) of the article text.
type window struct {
	start, end int
}

// windows computes the cut points for text. Every window after the first
// starts Overlap characters before the previous end and strictly after the
// previous start.
func (s *Splitter) windows(text []rune) []window {
	n := len(text)
	var out []window
	i := 0
	for i < n {
		j := min(n, i+s.cfg.MaxChars)
		if cut := s.sentenceEnd(text, i, j); cut >= 0 {
			j = cut + 1 // Keep the full stop with this chunk.
		}
		out = append(out, window{start: i, end: j})
		if j >= n {
			break
		}
		// j > i+Overlap holds for the hard cutoff (Overlap < MaxChars) and for
		// sentence cuts (enforced by sentenceEnd), so i strictly increases.
		i = max(0, j-s.cfg.Overlap)
	}
	return out
}

// sentenceEnd returns the index of the last ". " inside text[i:j], or -1.
// Only a full stop counts; "!" and "?" never end a window. The terminator must lie more than minSentenceBreak
// characters past i and far enough that the next window starts after i.
func (s *Splitter) sentenceEnd(text []rune, i, j int) int {
	floor := max(i+minSentenceBreak, i+s.cfg.Overlap-1)
	for k := j - 2; k > floor; k-- {
		if text[k] == '.' && text[k+1] == ' ' {
			return k
		}
	}
	return -1
}

// SplitAll chunks articles concurrently with at most workers goroutines and
// returns the chunks in article order.
func (s *Splitter) SplitAll(ctx context.Context, articles []doctree.Article, workers int) ([]doctree.Chunk, error) {
	if workers <= 0 {
		workers = 1
	}
	perArticle := make([][]doctree.Chunk, len(articles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range articles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perArticle[i] = s.Split(articles[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("split articles: %w", err)
	}

	total := 0
	for _, cs := range perArticle {
		total += len(cs)
	}
	out := make([]doctree.Chunk, 0, total)
	for _, cs := range perArticle {
		out = append(out, cs...)
	}
	return out, nil
}
