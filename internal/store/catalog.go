package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/catalog/internal/catalog"
)

// ProductsCollection holds catalog records.
const ProductsCollection = "products"

// Catalog is the catalog record adapter over a DocumentStore. It never
// caches: every ListAll is a fresh snapshot.
type Catalog struct {
	docs       DocumentStore
	collection string
	now        func() time.Time
	logger     *slog.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) CatalogOption {
	return func(c *Catalog) { c.now = now }
}

// WithCollection overrides the products collection name.
func WithCollection(name string) CatalogOption {
	return func(c *Catalog) { c.collection = name }
}

// WithCatalogLogger sets the adapter logger.
func WithCatalogLogger(l *slog.Logger) CatalogOption {
	return func(c *Catalog) { c.logger = l }
}

// NewCatalog creates the adapter.
func NewCatalog(docs DocumentStore, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		docs:       docs,
		collection: ProductsCollection,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListAll returns every record. Documents that cannot be decoded are
// logged and left out.
func (c *Catalog) ListAll(ctx context.Context) ([]catalog.Record, error) {
	docs, err := c.docs.ListAll(ctx, c.collection)
	if err != nil {
		return nil, err
	}
	return c.decodeAll(docs), nil
}

func (c *Catalog) decodeAll(docs []Document) []catalog.Record {
	out := make([]catalog.Record, 0, len(docs))
	for _, d := range docs {
		r, err := DecodeRecord(d)
		if err != nil {
			c.logger.Warn("skipping undecodable record", "collection", c.collection, "id", d.ID, "error", err)
			continue
		}
		out = append(out, r)
	}
	return out
}

// Create persists a new record and returns it with its id and timestamps.
func (c *Catalog) Create(ctx context.Context, r catalog.Record) (catalog.Record, error) {
	now := c.now()
	r.ID = ""
	r.CreatedAt = now
	r.UpdatedAt = now

	id, err := c.docs.Create(ctx, c.collection, r)
	if err != nil {
		return catalog.Record{}, err
	}
	r.ID = id
	return r, nil
}

// Update replaces every field of the stored record except createdAt and
// bumps updatedAt.
func (c *Catalog) Update(ctx context.Context, r catalog.Record) (catalog.Record, error) {
	if r.ID == "" {
		return catalog.Record{}, &PersistenceError{Op: "update", Collection: c.collection, Err: errors.New("record has no id")}
	}
	r.UpdatedAt = c.now()

	patch, err := updatePatch(r)
	if err != nil {
		return catalog.Record{}, &PersistenceError{Op: "update", Collection: c.collection, ID: r.ID, Err: err}
	}
	if err := c.docs.Update(ctx, c.collection, r.ID, patch); err != nil {
		return catalog.Record{}, err
	}
	return r, nil
}

// SetStatus changes only the status and returns the new updatedAt.
func (c *Catalog) SetStatus(ctx context.Context, id string, status catalog.Status) (time.Time, error) {
	now := c.now()
	patch := map[string]any{"status": status, "updatedAt": now}
	if err := c.docs.Update(ctx, c.collection, id, patch); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// Delete removes one record.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	return c.docs.Delete(ctx, c.collection, id)
}

// DeleteMany removes ids; see DocumentStore.DeleteMany.
func (c *Catalog) DeleteMany(ctx context.Context, ids []string) error {
	return c.docs.DeleteMany(ctx, c.collection, ids)
}

// Subscribe decodes collection snapshots until ctx is done.
func (c *Catalog) Subscribe(ctx context.Context) (<-chan []catalog.Record, error) {
	in, err := c.docs.Subscribe(ctx, c.collection)
	if err != nil {
		return nil, err
	}
	out := make(chan []catalog.Record, 1)
	go func() {
		defer close(out)
		for docs := range in {
			select {
			case out <- c.decodeAll(docs):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// clearable are omitempty fields that must be written explicitly so a
// merge update can clear them.
var clearable = map[string]any{
	"lowStockThreshold": nil,
	"category":          "",
	"company":           "",
	"description":       "",
	"specs":             nil,
	"thumbnail":         "",
	"attributes":        nil,
}

func updatePatch(r catalog.Record) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var patch map[string]json.RawMessage
	if err := json.Unmarshal(b, &patch); err != nil {
		return nil, err
	}
	delete(patch, "id")
	delete(patch, "createdAt")
	for k, zero := range clearable {
		if _, ok := patch[k]; !ok {
			v, _ := json.Marshal(zero)
			patch[k] = v
		}
	}
	return patch, nil
}

// storedRecord decodes timestamps separately so a malformed value does
// not make the whole record unreadable.
type storedRecord struct {
	catalog.Record
	CreatedAt json.RawMessage `json:"createdAt"`
	UpdatedAt json.RawMessage `json:"updatedAt"`
}

// DecodeRecord decodes a stored document. Missing or unparsable
// timestamps decode as the zero time.
func DecodeRecord(d Document) (catalog.Record, error) {
	var s storedRecord
	if err := json.Unmarshal(d.Data, &s); err != nil {
		return catalog.Record{}, fmt.Errorf("decode record %s: %w", d.ID, err)
	}
	r := s.Record
	r.ID = d.ID
	r.CreatedAt = parseTimestamp(s.CreatedAt)
	r.UpdatedAt = parseTimestamp(s.UpdatedAt)
	return r, nil
}

func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var ms int64
		if err := json.Unmarshal(raw, &ms); err == nil {
			return time.UnixMilli(ms).UTC()
		}
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
