package core

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/importer"
	"github.com/JonMunkholm/catalog/internal/store"
)

// Import parses a CSV or XLSX file, normalizes every row and creates one
// record per accepted row. Row failures (validation, duplicate SKU,
// persistence) are collected in the report and never abort the batch; a
// file that cannot be parsed aborts before anything is written.
func (s *Service) Import(ctx context.Context, fileName string, r io.Reader) (*importer.Report, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, ImportTimeout)
	defer cancel()

	start := time.Now()
	normalized, report, err := s.normalizeFile(fileName, r)
	if err != nil {
		return nil, err
	}

	pending := s.claimSKUs(normalized, report)

	var (
		mu      sync.Mutex
		created []importer.Normalized
		g       errgroup.Group
	)
	g.SetLimit(s.opts.ImportConcurrency)

	for _, n := range pending {
		g.Go(func() error {
			rec, err := s.products.Create(ctx, n.Record)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Fail(importer.ImportError{Row: n.Row, SKU: n.Record.SKU, Reason: err.Error()})
				return nil
			}
			report.Imported++
			created = append(created, importer.Normalized{Row: n.Row, Record: rec})
			return nil
		})
	}
	_ = g.Wait()

	// Creates finish in any order; the set keeps file order.
	slices.SortFunc(created, func(a, b importer.Normalized) int {
		return cmp.Compare(a.Row, b.Row)
	})
	for _, n := range created {
		s.set.Upsert(n.Record)
	}
	sortImportErrors(report)
	report.Duration = time.Since(start)

	s.logger.Info("import completed",
		"file", fileName,
		"total", report.Total,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration_ms", report.DurationMs(),
	)
	s.audit.Record(ctx, AuditLogParams{
		Action:       ActionImport,
		Collection:   store.ProductsCollection,
		RowsAffected: report.Imported,
		RowsFailed:   report.Failed,
		FileName:     fileName,
		Reason:       report.Summary(),
	})
	return report, nil
}

func (s *Service) normalizeFile(fileName string, r io.Reader) ([]importer.Normalized, *importer.Report, error) {
	rows, err := importer.ReadRows(fileName, r)
	if err != nil {
		return nil, nil, err
	}
	if s.opts.MaxImportRows > 0 && len(rows) > s.opts.MaxImportRows {
		return nil, nil, fmt.Errorf("%s has %d rows, limit is %d: %w", fileName, len(rows), s.opts.MaxImportRows, ErrTooManyRows)
	}
	normalized, report := s.normalizer.NormalizeAll(fileName, rows)
	return normalized, report, nil
}

// claimSKUs fails rows whose SKU is already in the catalog or was claimed
// by an earlier row of the same file.
func (s *Service) claimSKUs(normalized []importer.Normalized, report *importer.Report) []importer.Normalized {
	taken := s.set.SKUs()
	pending := make([]importer.Normalized, 0, len(normalized))
	for _, n := range normalized {
		key := catalog.SKUKey(n.Record.SKU)
		if _, dup := taken[key]; dup {
			report.Fail(importer.ImportError{Row: n.Row, SKU: n.Record.SKU, Reason: ErrDuplicateSKU.Error()})
			continue
		}
		taken[key] = struct{}{}
		pending = append(pending, n)
	}
	return pending
}

func sortImportErrors(r *importer.Report) {
	slices.SortStableFunc(r.Errors, func(a, b importer.ImportError) int {
		return cmp.Compare(a.Row, b.Row)
	})
}
