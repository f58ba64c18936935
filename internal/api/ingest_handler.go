// File path: internal/api/ingest_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nicodishanthj/partfinder/internal/catalog"
)

type ingestRequest struct {
	Source  string              `json:"source"`
	Records []catalog.RawRecord `json:"records"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse request: %w", err))
		return
	}
	source, err := catalog.ParseSource(req.Source)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Records) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("records required"))
		return
	}

	report, err := s.runner.Run(r.Context(), source, req.Records)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
