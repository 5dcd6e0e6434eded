// Package catalog defines the catalog record and the in-memory record set
// shared by the import, filter, selection and export stages.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the publication state of a record.
type Status string

const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
	StatusArchived  Status = "archived"
)

// Statuses lists the closed set of valid statuses.
var Statuses = []Status{StatusPublished, StatusDraft, StatusArchived}

// ParseStatus matches s case-insensitively against the closed status set.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return "", false
}

// PrimaryLanguage is the language whose name is used for search and display.
const PrimaryLanguage = "EN"

// DefaultLanguages is the language set used when none is configured.
var DefaultLanguages = []string{"EN", "RU", "UZ"}

// Spec is one ordered key/value pair of technical specifications.
type Spec struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SEO holds search-engine metadata, independent of the display fields.
type SEO struct {
	Slug        string `json:"slug,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Record is a single catalog entry persisted in the document store.
type Record struct {
	ID                string            `json:"id,omitempty"`
	Name              map[string]string `json:"name"`
	SKU               string            `json:"sku"`
	Price             decimal.Decimal   `json:"price"`
	Cost              decimal.Decimal   `json:"cost"`
	Stock             int               `json:"stock"`
	LowStockThreshold *int              `json:"lowStockThreshold,omitempty"`
	Category          string            `json:"category,omitempty"`
	Company           string            `json:"company,omitempty"`
	Status            Status            `json:"status"`
	Description       string            `json:"description,omitempty"`
	Specs             []Spec            `json:"specs,omitempty"`
	SEO               SEO               `json:"seo"`
	Thumbnail         string            `json:"thumbnail,omitempty"`
	Attributes        map[string]string `json:"attributes,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// PrimaryName returns the EN name, or "" when it is not set.
func (r Record) PrimaryName() string {
	return r.Name[PrimaryLanguage]
}

// DisplayName returns the EN name, falling back to the first non-empty
// name in languages order.
func (r Record) DisplayName(languages []string) string {
	if n := strings.TrimSpace(r.Name[PrimaryLanguage]); n != "" {
		return n
	}
	for _, lang := range languages {
		if n := strings.TrimSpace(r.Name[lang]); n != "" {
			return n
		}
	}
	return ""
}

// SKUKey is the form SKUs are compared in: "p-1 " and "P-1" are the same
// SKU within a catalog.
func SKUKey(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// Threshold returns the low-stock threshold and whether it is defined.
func (r Record) Threshold() (int, bool) {
	if r.LowStockThreshold == nil {
		return 0, false
	}
	return *r.LowStockThreshold, true
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (r Record) Clone() Record {
	out := r
	if r.Name != nil {
		out.Name = make(map[string]string, len(r.Name))
		for k, v := range r.Name {
			out.Name[k] = v
		}
	}
	if r.LowStockThreshold != nil {
		t := *r.LowStockThreshold
		out.LowStockThreshold = &t
	}
	if r.Specs != nil {
		out.Specs = append([]Spec(nil), r.Specs...)
	}
	if r.Attributes != nil {
		out.Attributes = make(map[string]string, len(r.Attributes))
		for k, v := range r.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}

// Clamp forces the numeric fields to be non-negative.
func (r *Record) Clamp() {
	if r.Price.IsNegative() {
		r.Price = decimal.Zero
	}
	if r.Cost.IsNegative() {
		r.Cost = decimal.Zero
	}
	if r.Stock < 0 {
		r.Stock = 0
	}
	if r.LowStockThreshold != nil && *r.LowStockThreshold < 0 {
		zero := 0
		r.LowStockThreshold = &zero
	}
}

// Touch bumps UpdatedAt, and sets CreatedAt if it has never been set.
func (r *Record) Touch(now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

// ErrInvalidRecord is wrapped by every Validate failure.
var ErrInvalidRecord = errors.New("invalid record")

// Validate checks the invariants a record must satisfy before it is persisted.
func (r Record) Validate(languages []string) error {
	if r.DisplayName(languages) == "" {
		return fmt.Errorf("%w: name is required in at least one language", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.SKU) == "" {
		return fmt.Errorf("%w: sku is required", ErrInvalidRecord)
	}
	if r.Status != "" {
		if _, ok := ParseStatus(string(r.Status)); !ok {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, r.Status)
		}
	}
	if IsLocalPreviewURL(r.Thumbnail) {
		return fmt.Errorf("%w: thumbnail is a local preview, upload it first", ErrInvalidRecord)
	}
	return nil
}

// IsLocalPreviewURL reports whether u is a transient browser preview URL
// that must be replaced by a persisted blob URL.
func IsLocalPreviewURL(u string) bool {
	u = strings.ToLower(strings.TrimSpace(u))
	return strings.HasPrefix(u, "blob:") || strings.HasPrefix(u, "data:")
}
