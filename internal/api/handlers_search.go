package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/regindex/internal/doctree"
	"github.com/dgallion1/regindex/internal/search"
)

const defaultSearchLimit = 8

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := s.searchLimit(r.URL.Query().Get("limit"))

	hits := s.searcher.Search(q, limit)
	s.metrics.ObserveSearch(len(hits))
	if hits == nil {
		hits = []search.Hit{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"query": q,
		"hits":  hits,
	})
}

// searchLimit parses the limit parameter. A missing value means the default;
// anything else is clamped into [1, SearchMaxLimit], unparsable values
// counting as zero.
func (s *Server) searchLimit(raw string) int {
	if raw == "" {
		return min(defaultSearchLimit, s.cfg.SearchMaxLimit)
	}
	n, _ := strconv.Atoi(raw)
	return max(1, min(n, s.cfg.SearchMaxLimit))
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")

	var quote *doctree.Chunk
	c, err := s.searcher.Quote(id)
	s.metrics.ObserveQuote(err == nil)
	switch {
	case err == nil:
		quote = &c
	case !errors.Is(err, search.ErrNotFound):
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":    id,
		"quote": quote,
	})
}
