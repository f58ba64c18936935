// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/nicodishanthj/partfinder/internal/common"
	"github.com/nicodishanthj/partfinder/internal/ingest"
	"github.com/nicodishanthj/partfinder/internal/inventory"
	"github.com/nicodishanthj/partfinder/internal/search"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

type Server struct {
	router    chi.Router
	search    *search.Service
	inventory *inventory.Service
	runner    *ingest.Runner
	store     vector.Store
}

func NewServer(searchSvc *search.Service, inventorySvc *inventory.Service, runner *ingest.Runner, store vector.Store) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		search:    searchSvc,
		inventory: inventorySvc,
		runner:    runner,
		store:     store,
	}
	s.routes()
	return s
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/logs", s.handleLogs)
	s.router.Get("/api/search", s.handleSearch)
	s.router.Get("/api/inventory", s.handleInventory)
	s.router.Get("/api/inventory/stats", s.handleInventoryStats)
	s.router.Get("/api/inventory/export", s.handleInventoryExport)
	s.router.Post("/api/ingest", s.handleIngest)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"parts":  count,
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": common.LogEntries()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
