// File path: internal/api/inventory_handler.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/common"
	"github.com/nicodishanthj/partfinder/internal/inventory"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

func filterFromQuery(r *http.Request) (vector.Filter, error) {
	filter := vector.Filter{}
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("source")); raw != "" {
		source, err := catalog.ParseSource(raw)
		if err != nil {
			return vector.Filter{}, err
		}
		filter.Source = source
	}
	if raw := strings.TrimSpace(q.Get("min_price")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			return vector.Filter{}, fmt.Errorf("min_price must be a non-negative number")
		}
		filter.MinPrice = &parsed
	}
	if raw := strings.TrimSpace(q.Get("max_price")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			return vector.Filter{}, fmt.Errorf("max_price must be a non-negative number")
		}
		filter.MaxPrice = &parsed
	}
	filter.NameContains = strings.TrimSpace(q.Get("name"))
	return filter, nil
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sortKey, err := inventory.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	order := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("order")))
	if order != "" && order != "asc" && order != "desc" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("order must be asc or desc"))
		return
	}
	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("page must be a positive integer"))
			return
		}
		page = parsed
	}

	result, err := s.inventory.List(r.Context(), filter, sortKey, order == "desc", page)
	if err != nil {
		if errors.Is(err, vector.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, fmt.Errorf("database unavailable"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleInventoryStats(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	stats, filtered, err := s.inventory.Stats(r.Context(), filter)
	if err != nil {
		if errors.Is(err, vector.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, fmt.Errorf("database unavailable"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":    stats,
		"filtered": filtered,
	})
}

func (s *Server) handleInventoryExport(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	filename := fmt.Sprintf("inventory-%s.csv", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := s.inventory.ExportCSV(r.Context(), filter, w); err != nil {
		// The response may be partially streamed; a status rewrite is
		// no longer possible here.
		common.Logger().Error("inventory export failed", "error", err)
	}
}
