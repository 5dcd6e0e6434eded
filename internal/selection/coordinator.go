package selection

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/export"
	"github.com/JonMunkholm/catalog/internal/store"
)

// Store is the part of the catalog adapter bulk operations need.
type Store interface {
	SetStatus(ctx context.Context, id string, status catalog.Status) (time.Time, error)
	DeleteMany(ctx context.Context, ids []string) error
}

// Action names a bulk operation.
type Action string

const (
	ActionSetStatus Action = "set_status"
	ActionDelete    Action = "delete"
	ActionExport    Action = "export"
)

// MsgNothingSelected is the result message for an empty selection.
const MsgNothingSelected = "No products selected"

// ItemFailure is one id that failed in a bulk operation.
type ItemFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Result aggregates a bulk operation. Failed ids are listed; every other
// requested id succeeded.
type Result struct {
	Action    Action        `json:"action"`
	Requested int           `json:"requested"`
	Succeeded int           `json:"succeeded"`
	Failed    []ItemFailure `json:"failed,omitempty"`
	Message   string        `json:"message"`
}

// HasFailures reports whether any item failed.
func (r Result) HasFailures() bool { return len(r.Failed) > 0 }

// FailedIDs returns the ids that failed.
func (r Result) FailedIDs() []string {
	ids := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.ID
	}
	return ids
}

// DefaultConcurrency bounds parallel per-item store calls.
const DefaultConcurrency = 8

// Coordinator applies bulk operations to the in-memory set and the store.
// Local state is updated optimistically and never rolled back; callers
// reconcile with a full refresh after a failure.
type Coordinator struct {
	set         *catalog.Set
	store       Store
	languages   []string
	concurrency int
	logger      *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConcurrency sets the per-item parallelism of bulk status updates.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLanguages sets the name languages used by exports.
func WithLanguages(langs []string) Option {
	return func(c *Coordinator) { c.languages = langs }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator creates a coordinator over set and store.
func NewCoordinator(set *catalog.Set, st Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		set:         set,
		store:       st,
		languages:   catalog.DefaultLanguages,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BulkSetStatus updates every selected id that has an in-memory record.
// All updates are attempted; confirmed ones are applied locally. The
// selection is cleared afterwards, whatever the outcome.
func (c *Coordinator) BulkSetStatus(ctx context.Context, sel *Selection, status catalog.Status) Result {
	res := Result{Action: ActionSetStatus}
	defer sel.Clear()

	targets := c.set.Pick(sel.IDs())
	if len(targets) == 0 {
		res.Message = MsgNothingSelected
		return res
	}
	res.Requested = len(targets)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(c.concurrency)

	for _, rec := range targets {
		g.Go(func() error {
			at, err := c.store.SetStatus(ctx, rec.ID, status)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed = append(res.Failed, ItemFailure{ID: rec.ID, Error: err.Error()})
				return nil
			}
			res.Succeeded++
			if cur, ok := c.set.Get(rec.ID); ok {
				cur.Status = status
				cur.UpdatedAt = at
				c.set.Upsert(cur)
			}
			return nil
		})
	}
	_ = g.Wait()

	sortFailures(res.Failed, targets)
	res.Message = summary("Updated", res)
	if res.HasFailures() {
		c.logger.Warn("bulk status update partially failed",
			"status", status, "succeeded", res.Succeeded, "failed", len(res.Failed))
	}
	return res
}

// BulkDelete removes ids from the in-memory set immediately, then from the
// store. Remote failures are reported per id but the local removal stands.
func (c *Coordinator) BulkDelete(ctx context.Context, ids []string) Result {
	res := Result{Action: ActionDelete, Requested: len(ids)}
	if len(ids) == 0 {
		res.Message = MsgNothingSelected
		return res
	}

	c.set.Remove(ids...)

	err := c.store.DeleteMany(ctx, ids)
	var be *store.BatchError
	switch {
	case err == nil:
	case errors.As(err, &be):
		for _, f := range be.Failures {
			res.Failed = append(res.Failed, ItemFailure{ID: f.ID, Error: f.Err.Error()})
		}
	default:
		for _, id := range ids {
			res.Failed = append(res.Failed, ItemFailure{ID: id, Error: err.Error()})
		}
	}
	res.Succeeded = res.Requested - len(res.Failed)
	res.Message = summary("Deleted", res)

	if res.HasFailures() {
		c.logger.Warn("bulk delete diverged from store; local removal kept",
			"requested", res.Requested, "failed_ids", res.FailedIDs())
	}
	return res
}

// BulkExport serializes exactly the records named by ids, in set order.
// An empty selection returns a nil artifact and a message, not an error.
func (c *Coordinator) BulkExport(ids []string, format export.Format) (*export.Artifact, Result, error) {
	res := Result{Action: ActionExport, Requested: len(ids)}
	records := c.set.Pick(ids)
	if len(records) == 0 {
		res.Message = MsgNothingSelected
		return nil, res, nil
	}

	art, err := export.Serialize(records, format, c.languages)
	if err != nil {
		return nil, res, err
	}
	res.Succeeded = len(records)
	res.Message = fmt.Sprintf("Exported %d products", len(records))
	return art, res, nil
}

func summary(verb string, r Result) string {
	if !r.HasFailures() {
		return fmt.Sprintf("%s %d products", verb, r.Succeeded)
	}
	return fmt.Sprintf("%s %d products, %d failed", verb, r.Succeeded, len(r.Failed))
}

// sortFailures orders failures like targets so results are stable
// regardless of completion order.
func sortFailures(failed []ItemFailure, targets []catalog.Record) {
	if len(failed) < 2 {
		return
	}
	pos := make(map[string]int, len(targets))
	for i, t := range targets {
		pos[t.ID] = i
	}
	slices.SortFunc(failed, func(a, b ItemFailure) int {
		return cmp.Compare(pos[a.ID], pos[b.ID])
	})
}
