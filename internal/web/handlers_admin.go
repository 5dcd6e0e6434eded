package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/catalog/internal/approval"
	"github.com/JonMunkholm/catalog/internal/auth"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/filter"
)

// auditPageSize is the number of audit entries per page.
const auditPageSize = 50

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := s.approvals.List(r.Context(), approval.Filter{
		State:  approval.State(q.Get("state")),
		Role:   auth.Role(q.Get("role")),
		Search: q.Get("search"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, users)
}

func (s *Server) handleApproveUser(w http.ResponseWriter, r *http.Request) {
	s.changeApproval(w, r, core.ActionUserApprove, s.approvals.Approve)
}

func (s *Server) handleRevokeUser(w http.ResponseWriter, r *http.Request) {
	s.changeApproval(w, r, core.ActionUserRevoke, s.approvals.Revoke)
}

func (s *Server) changeApproval(w http.ResponseWriter, r *http.Request, action core.AuditAction,
	apply func(ctx context.Context, id, by string) error) {
	id := chi.URLParam(r, "id")
	caller, _ := auth.FromContext(r.Context())

	if err := apply(r.Context(), id, caller.UserID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.service.Audit().Record(r.Context(), core.AuditLogParams{
		Action:     action,
		Collection: approval.UsersCollection,
		RecordID:   id,
	})
	w.WriteHeader(http.StatusNoContent)
}

// handleAuditLog lists audit entries, newest first, filtered by action and
// an inclusive from/to date range.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntParam(q, "page", 1)

	from, err := parseDate(q, "from", false)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	to, err := parseDate(q, "to", true)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	entries, err := s.service.Audit().List(r.Context(), core.AuditLogFilter{
		Action:    core.AuditAction(q.Get("action")),
		StartTime: from,
		EndTime:   to,
		Limit:     auditPageSize,
		Offset:    (page - 1) * auditPageSize,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, struct {
		Entries  []core.AuditEntry `json:"entries"`
		Page     int               `json:"page"`
		PageSize int               `json:"pageSize"`
	}{entries, page, auditPageSize})
}

type healthResponse struct {
	Status      string             `json:"status"`
	Records     int                `json:"records"`
	LastRefresh *time.Time         `json:"lastRefresh,omitempty"`
	Imports     core.LimiterStatus `json:"imports"`
}

// handleHealth reports liveness. The catalog is degraded until the first
// successful refresh.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Records: s.service.Query(filter.Spec{}, 1, 1).Total,
		Imports: s.service.Limiter().Status(),
	}
	if last := s.service.LastRefresh(); last.IsZero() {
		resp.Status = "degraded"
	} else {
		resp.LastRefresh = &last
	}
	writeJSON(w, r, http.StatusOK, resp)
}
