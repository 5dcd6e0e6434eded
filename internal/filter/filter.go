// Package filter computes the visible subset of a catalog record set.
//
// Apply is pure: it never mutates its input and performs no I/O. The same
// records and Spec always produce the same output, including the relative
// order of rows with equal sort keys.
//
// Search only looks at the EN name, the SKU and the category. Names in other
// languages are not searched.
package filter

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/catalog/internal/catalog"
)

// All is the wildcard value for Company, Category, Status and Stock.
const All = "all"

// Stock filter values.
const (
	StockAll = All
	StockLow = "low"
	StockOut = "out"
)

// SortField names a sortable record field.
type SortField string

const (
	SortNone      SortField = ""
	SortName      SortField = "name"
	SortSKU       SortField = "sku"
	SortPrice     SortField = "price"
	SortCost      SortField = "cost"
	SortStock     SortField = "stock"
	SortThreshold SortField = "lowStockThreshold"
	SortCategory  SortField = "category"
	SortCompany   SortField = "company"
	SortStatus    SortField = "status"
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
)

// SortDir is the sort direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Spec describes a filter and sort. Empty strings behave like "all".
type Spec struct {
	Search   string    `json:"search,omitempty"`
	Company  string    `json:"company,omitempty"`
	Category string    `json:"category,omitempty"`
	Status   string    `json:"status,omitempty"`
	Stock    string    `json:"stock,omitempty"`
	SortBy   SortField `json:"sortBy,omitempty"`
	SortDir  SortDir   `json:"sortDir,omitempty"`
}

// ValidSortField reports whether f is a known sort field.
func ValidSortField(f SortField) bool {
	switch f {
	case SortNone, SortName, SortSKU, SortPrice, SortCost, SortStock, SortThreshold,
		SortCategory, SortCompany, SortStatus, SortCreatedAt, SortUpdatedAt:
		return true
	}
	return false
}

// Apply returns the records that pass spec, sorted by spec.SortBy.
func Apply(records []catalog.Record, spec Spec) []catalog.Record {
	search := strings.ToLower(strings.TrimSpace(spec.Search))

	out := make([]catalog.Record, 0, len(records))
	for _, r := range records {
		if matches(r, spec, search) {
			out = append(out, r)
		}
	}

	if spec.SortBy != SortNone {
		sortRecords(out, spec.SortBy, spec.SortDir)
	}
	return out
}

func matches(r catalog.Record, spec Spec, search string) bool {
	if search != "" &&
		!strings.Contains(strings.ToLower(r.PrimaryName()), search) &&
		!strings.Contains(strings.ToLower(r.SKU), search) &&
		!strings.Contains(strings.ToLower(r.Category), search) {
		return false
	}
	if !exact(spec.Company, r.Company) || !exact(spec.Category, r.Category) || !exact(spec.Status, string(r.Status)) {
		return false
	}
	switch spec.Stock {
	case StockLow:
		return r.IsLowStock()
	case StockOut:
		return r.IsOutOfStock()
	}
	return true
}

func exact(want, got string) bool {
	return want == "" || want == All || want == got
}

func sortRecords(records []catalog.Record, field SortField, dir SortDir) {
	// Collators keep internal buffers and are not safe for concurrent use.
	coll := collate.New(language.Und, collate.IgnoreCase)

	cmp := comparator(field, coll)
	if dir == Desc {
		slices.SortStableFunc(records, func(a, b catalog.Record) int { return cmp(b, a) })
		return
	}
	slices.SortStableFunc(records, cmp)
}

func comparator(field SortField, coll *collate.Collator) func(a, b catalog.Record) int {
	text := func(get func(catalog.Record) string) func(a, b catalog.Record) int {
		return func(a, b catalog.Record) int { return coll.CompareString(get(a), get(b)) }
	}
	integer := func(get func(catalog.Record) int) func(a, b catalog.Record) int {
		return func(a, b catalog.Record) int { return compareInt(get(a), get(b)) }
	}
	instant := func(get func(catalog.Record) time.Time) func(a, b catalog.Record) int {
		return func(a, b catalog.Record) int { return compareInt64(epochMillis(get(a)), epochMillis(get(b))) }
	}

	switch field {
	case SortName:
		return text(catalog.Record.PrimaryName)
	case SortSKU:
		return text(func(r catalog.Record) string { return r.SKU })
	case SortCategory:
		return text(func(r catalog.Record) string { return r.Category })
	case SortCompany:
		return text(func(r catalog.Record) string { return r.Company })
	case SortStatus:
		return text(func(r catalog.Record) string { return string(r.Status) })
	case SortPrice:
		return func(a, b catalog.Record) int { return a.Price.Cmp(b.Price) }
	case SortCost:
		return func(a, b catalog.Record) int { return a.Cost.Cmp(b.Cost) }
	case SortStock:
		return integer(func(r catalog.Record) int { return r.Stock })
	case SortThreshold:
		// undefined thresholds sort before any defined one
		return integer(func(r catalog.Record) int {
			if t, ok := r.Threshold(); ok {
				return t
			}
			return -1
		})
	case SortCreatedAt:
		return instant(func(r catalog.Record) time.Time { return r.CreatedAt })
	case SortUpdatedAt:
		return instant(func(r catalog.Record) time.Time { return r.UpdatedAt })
	}
	return func(a, b catalog.Record) int { return 0 }
}

// epochMillis maps the zero time to the Unix epoch.
func epochMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
