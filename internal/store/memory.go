package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process DocumentStore. Documents keep insertion order.
type Memory struct {
	mu          sync.Mutex
	collections map[string]*memCollection
	newID       func() string
}

type memCollection struct {
	order []string
	docs  map[string]json.RawMessage
	subs  map[chan []Document]struct{}
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memCollection), newID: uuid.NewString}
}

func (m *Memory) collection(name string) *memCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]json.RawMessage), subs: make(map[chan []Document]struct{})}
		m.collections[name] = c
	}
	return c
}

func (c *memCollection) snapshot() []Document {
	out := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		data := make(json.RawMessage, len(c.docs[id]))
		copy(data, c.docs[id])
		out = append(out, Document{ID: id, Data: data})
	}
	return out
}

// publish replaces any unread snapshot so slow subscribers only see the
// latest state. Called with m.mu held.
func (c *memCollection) publish() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshot()
	for ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// ListAll returns every document in collection.
func (m *Memory) ListAll(_ context.Context, collection string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collection(collection).snapshot(), nil
}

// Get returns the document id in collection.
func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collection(collection).docs[id]
	if !ok {
		return Document{}, &PersistenceError{Op: "get", Collection: collection, ID: id, Err: ErrNotFound}
	}
	data := make(json.RawMessage, len(doc))
	copy(data, doc)
	return Document{ID: id, Data: data}, nil
}

// Create stores data under a new id.
func (m *Memory) Create(_ context.Context, collection string, data any) (string, error) {
	body, err := marshalObject(data)
	if err != nil {
		return "", &PersistenceError{Op: "create", Collection: collection, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collection(collection)
	id := m.newID()
	c.order = append(c.order, id)
	c.docs[id] = append(json.RawMessage(nil), body...)
	c.publish()
	return id, nil
}

// Update merges patch into the document.
func (m *Memory) Update(_ context.Context, collection, id string, patch any) error {
	body, err := marshalObject(patch)
	if err != nil {
		return &PersistenceError{Op: "update", Collection: collection, ID: id, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collection(collection)
	doc, ok := c.docs[id]
	if !ok {
		return &PersistenceError{Op: "update", Collection: collection, ID: id, Err: ErrNotFound}
	}
	merged, err := mergePatch(doc, body)
	if err != nil {
		return &PersistenceError{Op: "update", Collection: collection, ID: id, Err: err}
	}
	c.docs[id] = merged
	c.publish()
	return nil
}

// Delete removes one document.
func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collection(collection)
	if !c.remove(id) {
		return &PersistenceError{Op: "delete", Collection: collection, ID: id, Err: ErrNotFound}
	}
	c.publish()
	return nil
}

// DeleteMany removes every existing id and reports the missing ones.
func (m *Memory) DeleteMany(_ context.Context, collection string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collection(collection)

	var failures []ItemError
	removed := 0
	for _, id := range ids {
		if c.remove(id) {
			removed++
			continue
		}
		failures = append(failures, ItemError{ID: id, Err: ErrNotFound})
	}
	if removed > 0 {
		c.publish()
	}
	if len(failures) > 0 {
		return &BatchError{Op: "delete", Failures: failures}
	}
	return nil
}

func (c *memCollection) remove(id string) bool {
	if _, ok := c.docs[id]; !ok {
		return false
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Subscribe sends the current snapshot and then one per change. The
// channel is closed when ctx is done.
func (m *Memory) Subscribe(ctx context.Context, collection string) (<-chan []Document, error) {
	ch := make(chan []Document, 1)

	m.mu.Lock()
	c := m.collection(collection)
	c.subs[ch] = struct{}{}
	ch <- c.snapshot()
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(c.subs, ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch, nil
}
