package pipeline

import (
	"github.com/dgallion1/regindex/internal/chunker"
	"github.com/dgallion1/regindex/internal/doctree"
)

// Assemble combines provenance, counts and chunks into the final index.
// Stats are derived from the slices passed in, so Stats.Chunks always equals
// len(Chunks).
//
// Chunk ids are numbered per (article, page_from) across the whole index, so
// a repeated heading on the same page continues the sequence of the earlier
// one instead of reusing its ids. ChunkIndex stays 1-based per article.
func Assemble(src doctree.Source, pages []doctree.Page, articles []doctree.Article, chunks []doctree.Chunk) doctree.Index {
	if chunks == nil {
		chunks = []doctree.Chunk{}
	}

	type idKey struct{ article, page int }
	seq := make(map[idKey]int, len(articles))
	for i := range chunks {
		c := &chunks[i]
		k := idKey{c.Article, c.PageFrom}
		seq[k]++
		c.ID = chunker.ChunkID(c.Article, c.PageFrom, seq[k])
	}

	return doctree.Index{
		Source: src,
		Stats: doctree.Stats{
			Pages:         len(pages),
			ArticlesFound: len(articles),
			Chunks:        len(chunks),
		},
		Chunks: chunks,
	}
}
