package api

import (
	"encoding/json"
	"net/http"
)

// handleStats reports what the live index holds.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"source":          s.searcher.Source(),
		"stats":           s.searcher.Stats(),
		"searchable":      s.searcher.Len(),
		"index_available": s.searcher.LoadErr() == nil,
	}
	if le := s.searcher.LoadErr(); le != nil {
		resp["error"] = le.Code
		resp["path"] = le.Path
	}
	if s.orchestrator != nil {
		resp["queue_depth"] = s.orchestrator.QueueDepth()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
