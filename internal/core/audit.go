package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/JonMunkholm/catalog/internal/auth"
	"github.com/JonMunkholm/catalog/internal/store"
)

// AuditCollection holds audit entries in the document store.
const AuditCollection = "audit_log"

// DefaultHistoryLimit caps audit queries without an explicit limit.
const DefaultHistoryLimit = 100

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionImport      AuditAction = "import"
	ActionSave        AuditAction = "save"
	ActionDelete      AuditAction = "delete"
	ActionBulkStatus  AuditAction = "bulk_status"
	ActionBulkDelete  AuditAction = "bulk_delete"
	ActionExport      AuditAction = "export"
	ActionUserApprove AuditAction = "user_approve"
	ActionUserRevoke  AuditAction = "user_revoke"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           string        `json:"id,omitempty"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	Collection   string        `json:"collection"`
	UserID       string        `json:"userId,omitempty"`
	UserEmail    string        `json:"userEmail,omitempty"`
	IPAddress    string        `json:"ipAddress,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	RecordID     string        `json:"recordId,omitempty"`
	RecordIDs    []string      `json:"recordIds,omitempty"`
	NewValue     string        `json:"newValue,omitempty"`
	RowsAffected int           `json:"rowsAffected,omitempty"`
	RowsFailed   int           `json:"rowsFailed,omitempty"`
	FileName     string        `json:"fileName,omitempty"`
	BatchID      string        `json:"batchId,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AuditLogParams contains parameters for creating an audit log entry.
// Identity, IP address and user agent are taken from the context.
type AuditLogParams struct {
	Action       AuditAction
	Collection   string
	RecordID     string
	RecordIDs    []string
	NewValue     string
	RowsAffected int
	RowsFailed   int
	FileName     string
	BatchID      string
	Reason       string
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionImport, ActionBulkStatus, ActionDelete:
		return SeverityHigh
	case ActionBulkDelete, ActionUserApprove, ActionUserRevoke:
		return SeverityCritical
	case ActionExport:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// AuditLog records data modifications into the audit collection.
type AuditLog struct {
	docs   store.DocumentStore
	now    func() time.Time
	logger *slog.Logger
}

// NewAuditLog creates an audit log writing to docs.
func NewAuditLog(docs store.DocumentStore, logger *slog.Logger) *AuditLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLog{docs: docs, now: func() time.Time { return time.Now().UTC() }, logger: logger}
}

// Log creates a new audit log entry.
func (a *AuditLog) Log(ctx context.Context, params AuditLogParams) (*AuditEntry, error) {
	meta := RequestMetaFrom(ctx)
	entry := AuditEntry{
		Action:       params.Action,
		Severity:     determineSeverity(params.Action),
		Collection:   params.Collection,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		RecordID:     params.RecordID,
		RecordIDs:    params.RecordIDs,
		NewValue:     params.NewValue,
		RowsAffected: params.RowsAffected,
		RowsFailed:   params.RowsFailed,
		FileName:     params.FileName,
		BatchID:      params.BatchID,
		Reason:       params.Reason,
		CreatedAt:    a.now(),
	}
	if id, ok := auth.FromContext(ctx); ok {
		entry.UserID = id.UserID
		entry.UserEmail = id.Email
	}

	docID, err := a.docs.Create(ctx, AuditCollection, entry)
	if err != nil {
		return nil, fmt.Errorf("write audit entry: %w", err)
	}
	entry.ID = docID
	return &entry, nil
}

// Record logs params and only reports failures to the logger. An audit
// write failure never fails the operation being audited.
func (a *AuditLog) Record(ctx context.Context, params AuditLogParams) {
	if a == nil {
		return
	}
	if _, err := a.Log(ctx, params); err != nil {
		a.logger.Warn("audit log write failed", "action", params.Action, "error", err)
	}
}

// AuditLogFilter contains filtering options for querying audit logs.
type AuditLogFilter struct {
	Action    AuditAction
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// List returns matching entries, newest first.
func (a *AuditLog) List(ctx context.Context, filter AuditLogFilter) ([]AuditEntry, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultHistoryLimit
	}

	docs, err := a.docs.ListAll(ctx, AuditCollection)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}

	entries := make([]AuditEntry, 0, len(docs))
	for _, d := range docs {
		var e AuditEntry
		if err := json.Unmarshal(d.Data, &e); err != nil {
			a.logger.Warn("skipping undecodable audit entry", "id", d.ID, "error", err)
			continue
		}
		e.ID = d.ID
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if !filter.StartTime.IsZero() && e.CreatedAt.Before(filter.StartTime) {
			continue
		}
		if !filter.EndTime.IsZero() && !e.CreatedAt.Before(filter.EndTime) {
			continue
		}
		entries = append(entries, e)
	}

	slices.SortStableFunc(entries, func(x, y AuditEntry) int { return y.CreatedAt.Compare(x.CreatedAt) })

	if filter.Offset >= len(entries) {
		return []AuditEntry{}, nil
	}
	entries = entries[filter.Offset:]
	if len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}
