package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_CRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.Create(ctx, "users", map[string]any{"email": "a@example.com", "approved": false})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, m.Update(ctx, "users", id, map[string]any{"approved": true}))

	doc, err := m.Get(ctx, "users", id)
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID)
	assert.JSONEq(t, `{"email":"a@example.com","approved":true}`, string(doc.Data))

	_, err = m.Get(ctx, "users", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	docs, err := m.ListAll(ctx, "users")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.JSONEq(t, `{"email":"a@example.com","approved":true}`, string(docs[0].Data))

	err = m.Update(ctx, "users", "missing", map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Delete(ctx, "users", id))
	assert.ErrorIs(t, m.Delete(ctx, "users", id), ErrNotFound)

	docs, _ = m.ListAll(ctx, "users")
	assert.Empty(t, docs)
}

func TestMemory_ListAllKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var ids []string
	for _, sku := range []string{"c", "a", "b"} {
		id, err := m.Create(ctx, "products", map[string]string{"sku": sku})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	docs, _ := m.ListAll(ctx, "products")
	got := make([]string, len(docs))
	for i, d := range docs {
		got[i] = d.ID
	}
	assert.Equal(t, ids, got)
}

func TestMemory_DeleteManyReportsMissing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a, _ := m.Create(ctx, "products", map[string]string{"sku": "A"})

	err := m.DeleteMany(ctx, "products", []string{a, "ghost"})

	var be *BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, []string{"ghost"}, be.FailedIDs())

	docs, _ := m.ListAll(ctx, "products")
	assert.Empty(t, docs)
}

func TestMemory_Subscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewMemory()

	ch, err := m.Subscribe(ctx, "products")
	require.NoError(t, err)

	first := receive(t, ch)
	assert.Empty(t, first)

	_, err = m.Create(context.Background(), "products", map[string]string{"sku": "A"})
	require.NoError(t, err)

	second := receive(t, ch)
	require.Len(t, second, 1)

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond)
}

func receive(t *testing.T, ch <-chan []Document) []Document {
	t.Helper()
	select {
	case docs := <-ch:
		return docs
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
		return nil
	}
}

func TestMergePatch(t *testing.T) {
	merged, err := mergePatch(json.RawMessage(`{"a":1,"b":{"x":1}}`), []byte(`{"b":{"y":2},"c":null}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":{"y":2},"c":null}`, string(merged))
}
