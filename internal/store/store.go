// Package store is the persistence boundary: a schemaless document store
// with collections, and the catalog adapter built on top of it.
//
// Two DocumentStore implementations exist. Postgres keeps every document
// as a JSONB row in one table and pushes changes with LISTEN/NOTIFY; Memory
// is used in tests and for local runs without a database.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Document is a stored document and its id.
type Document struct {
	ID   string
	Data json.RawMessage
}

// DocumentStore is the document database as seen by the application.
//
// Get returns one document, or an error wrapping ErrNotFound.
// Update merges the top-level keys of patch into the stored document.
// DeleteMany attempts every id and returns a *BatchError naming the ids
// that could not be deleted. Subscribe sends a full snapshot of the
// collection immediately and after every change, until ctx is done.
type DocumentStore interface {
	ListAll(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Create(ctx context.Context, collection string, data any) (string, error)
	Update(ctx context.Context, collection, id string, patch any) error
	Delete(ctx context.Context, collection, id string) error
	DeleteMany(ctx context.Context, collection string, ids []string) error
	Subscribe(ctx context.Context, collection string) (<-chan []Document, error)
}

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrSubscribeUnsupported is returned by stores without change feeds.
	ErrSubscribeUnsupported = errors.New("subscriptions not supported")
)

// PersistenceError is a failed store operation on one document or collection.
type PersistenceError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ItemError is the failure of one id in a batch.
type ItemError struct {
	ID  string
	Err error
}

// BatchError reports the ids of a batch operation that failed. Ids not
// listed succeeded.
type BatchError struct {
	Op       string
	Failures []ItemError
}

func (e *BatchError) Error() string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.ID
	}
	return fmt.Sprintf("%s: %d failed (%s)", e.Op, len(e.Failures), strings.Join(ids, ", "))
}

// FailedIDs returns the failed ids in batch order.
func (e *BatchError) FailedIDs() []string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.ID
	}
	return ids
}

// mergePatch overlays the top-level keys of patch onto doc.
func mergePatch(doc json.RawMessage, patch []byte) (json.RawMessage, error) {
	base := map[string]json.RawMessage{}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &base); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
	}
	var over map[string]json.RawMessage
	if err := json.Unmarshal(patch, &over); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	for k, v := range over {
		base[k] = v
	}
	return json.Marshal(base)
}

func marshalObject(v any) ([]byte, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 || b[0] != '{' {
		return nil, errors.New("document must be a JSON object")
	}
	return b, nil
}
