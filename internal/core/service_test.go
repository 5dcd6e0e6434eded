package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/catalog/internal/auth"
	"github.com/JonMunkholm/catalog/internal/blob"
	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/export"
	"github.com/JonMunkholm/catalog/internal/filter"
	"github.com/JonMunkholm/catalog/internal/store"
)

const offerCSV = "Name,SKU,Price,Qty\n" +
	"Pump X100,P-100,10,3\n" +
	",,,\n" +
	"Valve,P-100,5,1\n" +
	"Chain,EXIST-1,2,2\n" +
	"Box lid,,3,\n"

// flakyStore fails DeleteMany and Update for selected ids, leaving the
// documents in place.
type flakyStore struct {
	*store.Memory
	mu   sync.Mutex
	fail map[string]bool
}

func newFlakyStore(failIDs ...string) *flakyStore {
	f := &flakyStore{Memory: store.NewMemory(), fail: map[string]bool{}}
	for _, id := range failIDs {
		f.fail[id] = true
	}
	return f
}

func (f *flakyStore) failing(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[id]
}

func (f *flakyStore) setFailing(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[id] = true
}

func (f *flakyStore) Update(ctx context.Context, collection, id string, patch any) error {
	if f.failing(id) {
		return &store.PersistenceError{Op: "update", Collection: collection, ID: id, Err: errors.New("connection reset by peer")}
	}
	return f.Memory.Update(ctx, collection, id, patch)
}

func (f *flakyStore) DeleteMany(ctx context.Context, collection string, ids []string) error {
	var ok []string
	var failures []store.ItemError
	for _, id := range ids {
		if f.failing(id) {
			failures = append(failures, store.ItemError{ID: id, Err: errors.New("permission denied")})
			continue
		}
		ok = append(ok, id)
	}
	if err := f.Memory.DeleteMany(ctx, collection, ok); err != nil {
		return err
	}
	if len(failures) > 0 {
		return &store.BatchError{Op: "delete", Failures: failures}
	}
	return nil
}

type brokenBlob struct{}

func (brokenBlob) Upload(_ context.Context, p string, _ []byte, _ string) (string, error) {
	return "", &blob.UploadError{Path: p, Err: errors.New("bucket unavailable")}
}

func newTestService(t *testing.T, docs store.DocumentStore, blobs blob.Store) *Service {
	t.Helper()
	if blobs == nil {
		local, err := blob.NewLocal(t.TempDir(), "http://localhost:8080/media")
		require.NoError(t, err)
		blobs = local
	}
	return NewService(docs, blobs, Options{MaxImportRows: 100}, nil)
}

func product(name, sku string, price string) catalog.Record {
	return catalog.Record{
		Name:  map[string]string{"EN": name},
		SKU:   sku,
		Price: decimal.RequireFromString(price),
		Stock: 4,
	}
}

func mustSave(t *testing.T, svc *Service, r catalog.Record) catalog.Record {
	t.Helper()
	saved, err := svc.Save(context.Background(), r, nil)
	require.NoError(t, err)
	return saved
}

func TestService_Import(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := newTestService(t, mem, nil)
	mustSave(t, svc, product("Existing chain", "EXIST-1", "1"))

	report, err := svc.Import(ctx, "offer.csv", strings.NewReader(offerCSV))
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 3, report.Errors[0].Row)
	assert.Equal(t, "P-100", report.Errors[0].SKU)
	assert.Equal(t, 4, report.Errors[1].Row)
	assert.Contains(t, report.Errors[1].Reason, "sku already exists")

	skus := svc.set.SKUs()
	assert.Contains(t, skus, "P-100")
	assert.Contains(t, skus, "IMP-BOXLID-5")
	assert.Equal(t, 3, svc.set.Len())

	stored, err := store.NewCatalog(mem).ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	entries, err := svc.Audit().List(ctx, AuditLogFilter{Action: ActionImport})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].RowsAffected)
	assert.Equal(t, 2, entries[0].RowsFailed)
	assert.Equal(t, SeverityHigh, entries[0].Severity)
}

func TestService_ImportPersistenceFailureIsPerRow(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &createFailStore{Memory: store.NewMemory(), sku: "P-100"}, nil)

	report, err := svc.Import(ctx, "offer.csv", strings.NewReader("Name,SKU,Price\nPump,P-100,1\nValve,V-1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 1, report.Errors[0].Row)
	assert.Equal(t, 1, svc.set.Len())
}

// createFailStore rejects creates of products carrying sku.
type createFailStore struct {
	*store.Memory
	sku string
}

func (c *createFailStore) Create(ctx context.Context, collection string, data any) (string, error) {
	if r, ok := data.(catalog.Record); ok && r.SKU == c.sku {
		return "", &store.PersistenceError{Op: "create", Collection: collection, Err: errors.New("connection refused")}
	}
	return c.Memory.Create(ctx, collection, data)
}

func TestService_ImportAbortsOnBadFile(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := newTestService(t, mem, nil)

	_, err := svc.Import(ctx, "empty.csv", strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, "FILE003", MapError(err).Code)

	_, err = svc.Import(ctx, "broken.xlsx", strings.NewReader("not a zip"))
	require.Error(t, err)
	assert.Equal(t, "FILE002", MapError(err).Code)

	docs, _ := mem.ListAll(ctx, store.ProductsCollection)
	assert.Empty(t, docs)
}

func TestService_ImportRowLimit(t *testing.T) {
	svc := NewService(store.NewMemory(), nil, Options{MaxImportRows: 1}, nil)
	_, err := svc.Import(context.Background(), "offer.csv", strings.NewReader(offerCSV))
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestService_ImportSKUCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemory(), nil)
	existing := mustSave(t, svc, product("Pump", "P-1", "1"))

	preview, err := svc.PreviewImport("lower.csv", strings.NewReader("Name,SKU,Price\nValve V2,p-1,5\nValve V3, P-2 ,5\nValve V4,p-2,5\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, preview.Summary.ExistingRows)
	assert.Equal(t, 1, preview.Summary.DuplicateInFile)

	report, err := svc.Import(ctx, "lower.csv", strings.NewReader("Name,SKU,Price\nValve V2,p-1,5\nValve V3,P-2,5\nValve V4,p-2,5\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, "p-1", report.Errors[0].SKU)
	assert.Equal(t, "p-2", report.Errors[1].SKU)

	edit := existing.Clone()
	edit.Price = decimal.RequireFromString("2")
	_, err = svc.Save(ctx, edit, nil)
	require.NoError(t, err, "the original holder of P-1 must stay editable")

	_, err = svc.Save(ctx, product("Other", " p-2", "1"), nil)
	assert.ErrorIs(t, err, ErrDuplicateSKU)
}

// slowFirstStore finishes product creates in reverse file order.
type slowFirstStore struct {
	*store.Memory
	delays map[string]time.Duration
}

func (s *slowFirstStore) Create(ctx context.Context, collection string, data any) (string, error) {
	if r, ok := data.(catalog.Record); ok {
		time.Sleep(s.delays[r.SKU])
	}
	return s.Memory.Create(ctx, collection, data)
}

func TestService_ImportKeepsFileOrder(t *testing.T) {
	docs := &slowFirstStore{Memory: store.NewMemory(), delays: map[string]time.Duration{
		"S-1": 60 * time.Millisecond,
		"S-2": 40 * time.Millisecond,
		"S-3": 20 * time.Millisecond,
	}}
	svc := NewService(docs, nil, Options{ImportConcurrency: 4}, nil)

	report, err := svc.Import(context.Background(), "order.csv",
		strings.NewReader("Name,SKU,Price\nFirst item,S-1,1\nSecond item,S-2,1\nThird item,S-3,1\nFourth item,S-4,1\n"))
	require.NoError(t, err)
	require.Equal(t, 4, report.Imported)

	var skus []string
	for _, r := range svc.set.Snapshot() {
		skus = append(skus, r.SKU)
	}
	assert.Equal(t, []string{"S-1", "S-2", "S-3", "S-4"}, skus)
}

func TestService_PreviewImport(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := newTestService(t, mem, nil)
	mustSave(t, svc, product("Existing chain", "EXIST-1", "1"))

	preview, err := svc.PreviewImport("offer.csv", strings.NewReader(offerCSV))
	require.NoError(t, err)

	assert.Equal(t, PreviewSummary{
		TotalRows:       5,
		NewRows:         2,
		ExistingRows:    1,
		SkippedRows:     1,
		DuplicateInFile: 1,
	}, preview.Summary)
	assert.Equal(t, []string{"EXIST-1"}, preview.ExistingSKUs)
	require.Len(t, preview.DuplicateSamples, 1)
	assert.Equal(t, DuplicatePreview{SKU: "P-100", LineNumbers: []int{1, 3}}, preview.DuplicateSamples[0])
	require.Len(t, preview.NewRowSamples, 2)
	assert.Equal(t, "Pump X100", preview.NewRowSamples[0].Record.PrimaryName())

	docs, _ := mem.ListAll(ctx, store.ProductsCollection)
	assert.Len(t, docs, 1, "preview must not write")
}

func TestService_SaveCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemory(), nil)

	created := mustSave(t, svc, product("Pump X100", "P-100", "12.5"))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, catalog.StatusDraft, created.Status)
	assert.Equal(t, "pump-x100", created.SEO.Slug)
	assert.False(t, created.CreatedAt.IsZero())

	edit := created.Clone()
	edit.Price = decimal.RequireFromString("-3")
	edit.Category = "Pumps"
	updated, err := svc.Save(ctx, edit, nil)
	require.NoError(t, err)
	assert.True(t, updated.Price.IsZero(), "negative price must clamp")
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	got, err := svc.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pumps", got.Category)

	require.NoError(t, svc.Refresh(ctx))
	got, _ = svc.Get(created.ID)
	assert.Equal(t, "Pumps", got.Category, "update must reach the store")
}

func TestService_SaveRejects(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemory(), nil)
	mustSave(t, svc, product("Pump", "P-100", "1"))

	_, err := svc.Save(ctx, product("Other pump", "p-100", "1"), nil)
	assert.ErrorIs(t, err, ErrDuplicateSKU)

	_, err = svc.Save(ctx, product("", "V-1", "1"), nil)
	assert.ErrorIs(t, err, catalog.ErrInvalidRecord)

	preview := product("Valve", "V-1", "1")
	preview.Thumbnail = "blob:http://localhost/abc"
	_, err = svc.Save(ctx, preview, nil)
	assert.ErrorIs(t, err, catalog.ErrInvalidRecord)

	assert.Equal(t, 1, svc.set.Len())
}

func TestService_SaveUploadsThumbnail(t *testing.T) {
	dir := t.TempDir()
	local, err := blob.NewLocal(dir, "http://localhost:8080/media/")
	require.NoError(t, err)
	svc := newTestService(t, store.NewMemory(), local)

	rec := product("Pump", "P-100", "1")
	rec.Thumbnail = "blob:http://localhost/preview"
	saved, err := svc.Save(context.Background(), rec, &Upload{FileName: "pump.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(saved.Thumbnail, "http://localhost:8080/media/products/"), saved.Thumbnail)
	assert.True(t, strings.HasSuffix(saved.Thumbnail, ".png"))

	rel := strings.TrimPrefix(saved.Thumbnail, "http://localhost:8080/media/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestService_SaveAbortsOnUploadFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := newTestService(t, mem, brokenBlob{})

	_, err := svc.Save(ctx, product("Pump", "P-100", "1"), &Upload{FileName: "a.png", ContentType: "image/png", Data: []byte("x")})
	var ue *blob.UploadError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "BLOB001", MapError(err).Code)

	_, err = svc.Save(ctx, product("Pump", "P-100", "1"), &Upload{FileName: "a.pdf", ContentType: "application/pdf", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	docs, _ := mem.ListAll(ctx, store.ProductsCollection)
	assert.Empty(t, docs)
	assert.Zero(t, svc.set.Len())
}

// countingBlob records every upload.
type countingBlob struct {
	mu    sync.Mutex
	paths []string
}

func (c *countingBlob) Upload(_ context.Context, p string, _ []byte, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, p)
	return "https://cdn.example.com/" + p, nil
}

func TestService_SaveValidatesBeforeUpload(t *testing.T) {
	ctx := context.Background()
	blobs := &countingBlob{}
	svc := newTestService(t, store.NewMemory(), blobs)
	mustSave(t, svc, product("Pump", "P-100", "1"))

	png := &Upload{FileName: "a.png", ContentType: "image/png", Data: []byte("x")}

	_, err := svc.Save(ctx, product("Other pump", "P-100", "1"), png)
	assert.ErrorIs(t, err, ErrDuplicateSKU)

	_, err = svc.Save(ctx, product("", "V-1", "1"), png)
	assert.ErrorIs(t, err, catalog.ErrInvalidRecord)

	assert.Empty(t, blobs.paths, "rejected saves must not upload")

	saved, err := svc.Save(ctx, product("Valve", "V-1", "1"), png)
	require.NoError(t, err)
	require.Len(t, blobs.paths, 1)
	assert.Equal(t, "https://cdn.example.com/"+blobs.paths[0], saved.Thumbnail)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemory(), nil)
	a := mustSave(t, svc, product("Pump", "P-1", "1"))
	svc.Toggle(a.ID)

	require.NoError(t, svc.Delete(ctx, a.ID))
	_, err := svc.Get(a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, svc.SelectedIDs())

	err = svc.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_BulkSetStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemory(), nil)
	a := mustSave(t, svc, product("Pump", "P-1", "1"))
	b := mustSave(t, svc, product("Valve", "V-1", "1"))
	mustSave(t, svc, product("Chain", "C-1", "1"))

	svc.Toggle(a.ID)
	svc.Toggle(b.ID)
	res := svc.BulkSetStatus(ctx, catalog.StatusPublished)

	assert.Equal(t, 2, res.Succeeded)
	assert.False(t, res.HasFailures())
	assert.Empty(t, svc.SelectedIDs())

	require.NoError(t, svc.Refresh(ctx))
	page := svc.Query(filter.Spec{Status: string(catalog.StatusPublished)}, 1, 10)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, page.IDs())
}

func TestService_BulkDeleteReconcilesAfterFailure(t *testing.T) {
	ctx := context.Background()
	docs := newFlakyStore()
	svc := newTestService(t, docs, nil)
	a := mustSave(t, svc, product("Pump", "P-1", "1"))
	b := mustSave(t, svc, product("Valve", "V-1", "1"))
	docs.setFailing(b.ID)

	svc.Toggle(a.ID)
	svc.Toggle(b.ID)
	res := svc.BulkDelete(ctx)

	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, []string{b.ID}, res.FailedIDs())
	assert.Empty(t, svc.SelectedIDs())

	// the failed delete is restored from the store by the reconcile refresh
	_, err := svc.Get(a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = svc.Get(b.ID)
	assert.NoError(t, err)

	entries, err := svc.Audit().List(ctx, AuditLogFilter{Action: ActionBulkDelete})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{b.ID}, entries[0].RecordIDs)
	assert.Equal(t, SeverityCritical, entries[0].Severity)
}

func TestService_BulkSetStatusPartialFailure(t *testing.T) {
	ctx := context.Background()
	docs := newFlakyStore()
	svc := newTestService(t, docs, nil)
	a := mustSave(t, svc, product("Pump", "P-1", "1"))
	b := mustSave(t, svc, product("Valve", "V-1", "1"))
	docs.setFailing(b.ID)

	svc.Toggle(a.ID)
	svc.Toggle(b.ID)
	res := svc.BulkSetStatus(ctx, catalog.StatusArchived)

	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, []string{b.ID}, res.FailedIDs())

	gotA, _ := svc.Get(a.ID)
	gotB, _ := svc.Get(b.ID)
	assert.Equal(t, catalog.StatusArchived, gotA.Status)
	assert.Equal(t, catalog.StatusDraft, gotB.Status)
}

func TestService_BulkExport(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemory(), nil)
	a := mustSave(t, svc, product("Pump", "P-1", "1"))
	mustSave(t, svc, product("Valve", "V-1", "1"))

	art, res, err := svc.BulkExport(ctx, export.FormatCSV)
	require.NoError(t, err)
	assert.Nil(t, art)
	assert.Contains(t, res.Message, "No products selected")

	svc.Toggle(a.ID)
	art, res, err = svc.BulkExport(ctx, export.FormatCSV)
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Equal(t, 1, art.Rows)
	assert.Equal(t, 1, res.Succeeded)
	assert.Contains(t, string(art.Data), "P-1")
	assert.NotContains(t, string(art.Data), "V-1")
}

func TestService_QueryExportAndFacets(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemory(), nil)
	for _, r := range []catalog.Record{
		{Name: map[string]string{"EN": "Pump"}, SKU: "P-1", Company: "Innova", Category: "Pumps", Stock: 3},
		{Name: map[string]string{"EN": "Valve"}, SKU: "V-1", Company: "Acme", Category: "Valves", Stock: 0},
		{Name: map[string]string{"EN": "Hose"}, SKU: "H-1", Company: "Innova", Stock: 9},
	} {
		mustSave(t, svc, r)
	}

	page := svc.Query(filter.Spec{Company: "Innova", SortBy: filter.SortName, SortDir: filter.Asc}, 1, 1)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "H-1", page.Records[0].SKU)

	facets := svc.Facets()
	assert.Equal(t, []string{"Acme", "Innova"}, facets.Companies)
	assert.Equal(t, []string{"Pumps", "Valves"}, facets.Categories)

	art, err := svc.Export(ctx, filter.Spec{Stock: filter.StockOut}, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, art.Rows)

	_, err = svc.Export(ctx, filter.Spec{Search: "nothing matches"}, export.FormatCSV)
	assert.ErrorIs(t, err, export.ErrNothingToExport)
}

func TestService_SelectVisible(t *testing.T) {
	svc := newTestService(t, store.NewMemory(), nil)
	a := mustSave(t, svc, product("Alpha", "A-1", "1"))
	b := mustSave(t, svc, product("Beta", "B-1", "1"))
	mustSave(t, svc, product("Gamma", "G-1", "1"))

	ids := svc.SelectVisible(PageRequest{Spec: filter.Spec{SortBy: filter.SortName}, Page: 1, PageSize: 2})
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	svc.ClearSelection()
	assert.Empty(t, svc.SelectedIDs())
}

func TestService_RefreshDropsStaleSelection(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := newTestService(t, mem, nil)
	a := mustSave(t, svc, product("Pump", "P-1", "1"))
	b := mustSave(t, svc, product("Valve", "V-1", "1"))
	svc.Toggle(a.ID)
	svc.Toggle(b.ID)

	// another console deletes b
	require.NoError(t, mem.Delete(ctx, store.ProductsCollection, b.ID))
	require.NoError(t, svc.Refresh(ctx))

	assert.Equal(t, []string{a.ID}, svc.SelectedIDs())
	assert.False(t, svc.LastRefresh().IsZero())
}

func TestService_Watch(t *testing.T) {
	mem := store.NewMemory()
	svc := newTestService(t, mem, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Watch(ctx) }()

	other, err := store.NewCatalog(mem).Create(context.Background(), product("Pump", "P-1", "1"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := svc.Get(other.ID)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestService_AuditCarriesIdentity(t *testing.T) {
	svc := newTestService(t, store.NewMemory(), nil)
	ctx := auth.WithIdentity(context.Background(), auth.Identity{UserID: "u1", Email: "admin@example.com", Role: auth.RoleAdmin})
	ctx = WithRequestMeta(ctx, RequestMeta{IPAddress: "10.0.0.7", UserAgent: "test-agent"})

	_, err := svc.Save(ctx, product("Pump", "P-1", "1"), nil)
	require.NoError(t, err)

	entries, err := svc.Audit().List(context.Background(), AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, ActionSave, e.Action)
	assert.Equal(t, SeverityMedium, e.Severity)
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "admin@example.com", e.UserEmail)
	assert.Equal(t, "10.0.0.7", e.IPAddress)
	assert.Equal(t, "test-agent", e.UserAgent)
}
