package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/filter"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/JonMunkholm/catalog/internal/selection"
	"github.com/JonMunkholm/catalog/internal/web/templates"
)

type selectionResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

func newSelectionResponse(ids []string) selectionResponse {
	return selectionResponse{IDs: ids, Count: len(ids)}
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, newSelectionResponse(s.service.SelectedIDs()))
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.service.ClearSelection()
	writeJSON(w, r, http.StatusOK, newSelectionResponse(s.service.SelectedIDs()))
}

func (s *Server) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.service.Get(body.ID); err != nil {
		s.respondError(w, r, err)
		return
	}

	selected := s.service.Toggle(body.ID)
	writeJSON(w, r, http.StatusOK, struct {
		ID       string `json:"id"`
		Selected bool   `json:"selected"`
		selectionResponse
	}{body.ID, selected, newSelectionResponse(s.service.SelectedIDs())})
}

// handleSelectVisible adds the current page of a filter to the selection.
// The page is described by the same parameters as the product list, sent
// as a JSON body.
func (s *Server) handleSelectVisible(w http.ResponseWriter, r *http.Request) {
	var body struct {
		filter.Spec
		Page     int `json:"page"`
		PageSize int `json:"pageSize"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	if !filter.ValidSortField(body.SortBy) {
		body.SortBy = filter.SortNone
	}
	if body.PageSize <= 0 {
		body.PageSize = s.cfg.Catalog.PageSize
	}

	ids := s.service.SelectVisible(core.PageRequest{Spec: body.Spec, Page: body.Page, PageSize: body.PageSize})
	writeJSON(w, r, http.StatusOK, newSelectionResponse(ids))
}

func (s *Server) handleBulkStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	status, ok := catalog.ParseStatus(body.Status)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: unknown status %q", core.ErrBadRequest, body.Status))
		return
	}

	s.respondBulk(w, r, s.service.BulkSetStatus(r.Context(), status))
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	s.respondBulk(w, r, s.service.BulkDelete(r.Context()))
}

// handleBulkExport downloads the selected records. An empty selection
// yields the bulk result with its message instead of a file.
func (s *Server) handleBulkExport(w http.ResponseWriter, r *http.Request) {
	format, err := parseFormat(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	art, res, err := s.service.BulkExport(r.Context(), format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if art == nil {
		s.respondBulk(w, r, res)
		return
	}
	writeArtifact(w, art)
}

// respondBulk writes a bulk result. Partial failures are reported with
// 207 Multi-Status so clients can tell them from full success.
func (s *Server) respondBulk(w http.ResponseWriter, r *http.Request, res selection.Result) {
	status := http.StatusOK
	if res.HasFailures() {
		status = http.StatusMultiStatus
		logging.FromContext(r.Context()).Warn("bulk operation partially failed",
			"action", res.Action,
			"requested", res.Requested,
			"failed", len(res.Failed),
		)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("HX-Trigger", "catalog-changed")
		w.WriteHeader(status)
		if err := templates.BulkResult(res).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render bulk result", "error", err)
		}
		return
	}
	writeJSON(w, r, status, res)
}

// handleRefresh reloads the catalog from the store.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Refresh(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]time.Time{"refreshedAt": s.service.LastRefresh()})
}
