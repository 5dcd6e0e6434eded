package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/catalog/internal/blob"
	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/importer"
	"github.com/JonMunkholm/catalog/internal/selection"
	"github.com/JonMunkholm/catalog/internal/store"
)

// ImportTimeout is the maximum duration for an import operation.
var ImportTimeout = 10 * time.Minute

// RefreshTimeout is the maximum duration for a full reload of the catalog.
var RefreshTimeout = 30 * time.Second

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Languages                []string
	DefaultLowStockThreshold int
	RequireName              bool
	BulkConcurrency          int
	ImportConcurrency        int
	MaxConcurrentImports     int
	ImportWait               time.Duration
	MaxImportRows            int
	ThumbnailMaxBytes        int64
}

// DefaultImportConcurrency bounds parallel creates within one import.
const DefaultImportConcurrency = 8

// DefaultThumbnailMaxBytes is the thumbnail size limit.
const DefaultThumbnailMaxBytes = 5 << 20

// Service is the catalog session: it owns the in-memory record set and the
// selection, and is the only writer of both. Local state is updated
// optimistically after remote writes and reconciled by Refresh.
type Service struct {
	products   *store.Catalog
	blobs      blob.Store
	audit      *AuditLog
	set        *catalog.Set
	selection  *selection.Selection
	bulk       *selection.Coordinator
	normalizer *importer.Normalizer
	limiter    *ImportLimiter
	opts       Options
	logger     *slog.Logger

	mu          sync.Mutex // serializes Refresh
	lastRefresh time.Time
}

// NewService creates a session over docs. The record set starts empty;
// call Refresh to load it.
func NewService(docs store.DocumentStore, blobs blob.Store, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Languages) == 0 {
		opts.Languages = catalog.DefaultLanguages
	}
	if opts.DefaultLowStockThreshold <= 0 {
		opts.DefaultLowStockThreshold = importer.DefaultLowStockThreshold
	}
	if opts.BulkConcurrency <= 0 {
		opts.BulkConcurrency = selection.DefaultConcurrency
	}
	if opts.ImportConcurrency <= 0 {
		opts.ImportConcurrency = DefaultImportConcurrency
	}
	if opts.ThumbnailMaxBytes <= 0 {
		opts.ThumbnailMaxBytes = DefaultThumbnailMaxBytes
	}

	products := store.NewCatalog(docs, store.WithCatalogLogger(logger))
	set := catalog.NewSet(nil)

	return &Service{
		products:  products,
		blobs:     blobs,
		audit:     NewAuditLog(docs, logger),
		set:       set,
		selection: selection.New(),
		bulk: selection.NewCoordinator(set, products,
			selection.WithConcurrency(opts.BulkConcurrency),
			selection.WithLanguages(opts.Languages),
			selection.WithLogger(logger),
		),
		normalizer: importer.NewNormalizer(importer.Options{
			Languages:        opts.Languages,
			DefaultThreshold: opts.DefaultLowStockThreshold,
			RequireName:      opts.RequireName,
		}),
		limiter: NewImportLimiter(opts.MaxConcurrentImports, opts.ImportWait),
		opts:    opts,
		logger:  logger,
	}
}

// Languages returns the configured name languages.
func (s *Service) Languages() []string {
	return s.opts.Languages
}

// Limiter exposes the import limiter for health reporting and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Audit exposes the audit log.
func (s *Service) Audit() *AuditLog {
	return s.audit
}

// Refresh replaces the in-memory set with a fresh store snapshot. Selected
// ids that no longer exist are dropped from the selection.
func (s *Service) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, RefreshTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	records, err := s.products.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	s.apply(records)
	s.lastRefresh = time.Now()

	s.logger.Debug("catalog refreshed", "records", len(records), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// LastRefresh returns when Refresh last succeeded.
func (s *Service) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}

func (s *Service) apply(records []catalog.Record) {
	s.set.Replace(records)
	s.selection.Retain(func(id string) bool {
		_, ok := s.set.Get(id)
		return ok
	})
}

// Watch replaces the set with every snapshot pushed by the store until ctx
// is done. It returns store.ErrSubscribeUnsupported when the store has no
// change feed; callers then rely on the reconcile scheduler alone.
func (s *Service) Watch(ctx context.Context) error {
	snapshots, err := s.products.Subscribe(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("catalog subscription started")
	for records := range snapshots {
		s.apply(records)
		s.logger.Debug("catalog snapshot applied", "records", len(records))
	}

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Info("catalog subscription stopped")
	return nil
}

// reconcile runs a full refresh after a bulk operation reported failures,
// so local state stops diverging from the store.
func (s *Service) reconcile(ctx context.Context, res selection.Result) {
	if !res.HasFailures() {
		return
	}
	if err := s.Refresh(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error("reconcile after bulk failure", "action", res.Action, "error", err)
	}
}
