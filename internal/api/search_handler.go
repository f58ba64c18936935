// File path: internal/api/search_handler.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/nicodishanthj/partfinder/internal/embedding"
	"github.com/nicodishanthj/partfinder/internal/search"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("q query parameter required"))
		return
	}
	k := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("k")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("k must be a positive integer"))
			return
		}
		k = parsed
	}

	result, err := s.search.Search(r.Context(), query, k)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, search.ErrNoCandidates):
		writeError(w, http.StatusNotFound, fmt.Errorf("no matching parts found"))
	case errors.Is(err, embedding.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("search unavailable"))
	case errors.Is(err, vector.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("database unavailable"))
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
