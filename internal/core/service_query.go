package core

import (
	"context"
	"fmt"
	"slices"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/export"
	"github.com/JonMunkholm/catalog/internal/filter"
	"github.com/JonMunkholm/catalog/internal/store"
)

// PageRequest is a filter spec and the page of its result to show.
type PageRequest struct {
	Spec     filter.Spec
	Page     int
	PageSize int
}

// Query returns one page of the visible subset for spec.
func (s *Service) Query(spec filter.Spec, page, pageSize int) filter.Page {
	visible := filter.Apply(s.set.Snapshot(), spec)
	return filter.Paginate(visible, page, pageSize)
}

// Visible returns the whole visible subset for spec, in display order.
func (s *Service) Visible(spec filter.Spec) []catalog.Record {
	return filter.Apply(s.set.Snapshot(), spec)
}

// Get returns one record from the session.
func (s *Service) Get(id string) (catalog.Record, error) {
	r, ok := s.set.Get(id)
	if !ok {
		return catalog.Record{}, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	return r, nil
}

// Facets are the distinct values offered by the filter dropdowns.
type Facets struct {
	Companies  []string         `json:"companies"`
	Categories []string         `json:"categories"`
	Statuses   []catalog.Status `json:"statuses"`
}

// Facets collects the distinct non-empty companies and categories.
func (s *Service) Facets() Facets {
	companies := map[string]struct{}{}
	categories := map[string]struct{}{}
	for _, r := range s.set.Snapshot() {
		if r.Company != "" {
			companies[r.Company] = struct{}{}
		}
		if r.Category != "" {
			categories[r.Category] = struct{}{}
		}
	}
	return Facets{
		Companies:  sortedKeys(companies),
		Categories: sortedKeys(categories),
		Statuses:   catalog.Statuses,
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Export serializes the visible subset for spec, in display order.
func (s *Service) Export(ctx context.Context, spec filter.Spec, format export.Format) (*export.Artifact, error) {
	art, err := export.Serialize(s.Visible(spec), format, s.opts.Languages)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditLogParams{
		Action:       ActionExport,
		Collection:   store.ProductsCollection,
		RowsAffected: art.Rows,
		FileName:     art.FileName,
	})
	return art, nil
}
