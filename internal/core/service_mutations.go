package core

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"

	"github.com/JonMunkholm/catalog/internal/blob"
	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/export"
	"github.com/JonMunkholm/catalog/internal/importer"
	"github.com/JonMunkholm/catalog/internal/selection"
	"github.com/JonMunkholm/catalog/internal/store"
)

// ThumbnailPrefix is the blob folder for product thumbnails.
const ThumbnailPrefix = "products"

// Upload is a file attached to a save.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Save creates rec when it has no id and updates it otherwise. The record
// is validated before a thumbnail, when given, is uploaded; if the upload
// fails nothing is written. The saved record is applied to the local set.
func (s *Service) Save(ctx context.Context, rec catalog.Record, thumb *Upload) (catalog.Record, error) {
	rec = rec.Clone()
	if thumb != nil {
		// Replaced by the uploaded URL below.
		rec.Thumbnail = ""
	}

	rec.Clamp()
	if rec.Status == "" {
		rec.Status = catalog.StatusDraft
	}
	if rec.SEO.Slug == "" {
		rec.SEO.Slug = importer.Slugify(rec.DisplayName(s.opts.Languages))
	}
	if err := rec.Validate(s.opts.Languages); err != nil {
		return catalog.Record{}, err
	}
	if s.skuTaken(rec.SKU, rec.ID) {
		return catalog.Record{}, fmt.Errorf("save %s: %w", rec.SKU, ErrDuplicateSKU)
	}

	if thumb != nil {
		url, err := s.uploadThumbnail(ctx, thumb)
		if err != nil {
			return catalog.Record{}, err
		}
		rec.Thumbnail = url
	}

	var (
		saved catalog.Record
		err   error
	)
	if rec.ID == "" {
		saved, err = s.products.Create(ctx, rec)
	} else {
		if cur, ok := s.set.Get(rec.ID); ok {
			rec.CreatedAt = cur.CreatedAt
		}
		saved, err = s.products.Update(ctx, rec)
	}
	if err != nil {
		return catalog.Record{}, fmt.Errorf("save product %s: %w", rec.SKU, err)
	}

	s.set.Upsert(saved)
	s.audit.Record(ctx, AuditLogParams{
		Action:     ActionSave,
		Collection: store.ProductsCollection,
		RecordID:   saved.ID,
		NewValue:   saved.SKU,
	})
	return saved, nil
}

func (s *Service) skuTaken(sku, exceptID string) bool {
	owner, ok := s.set.SKUOwner(sku)
	return ok && owner != exceptID
}

func (s *Service) uploadThumbnail(ctx context.Context, u *Upload) (string, error) {
	ext, ok := blob.ImageExtension(u.ContentType)
	if !ok {
		return "", fmt.Errorf("thumbnail %q (%s): %w", u.FileName, u.ContentType, ErrUnsupportedImage)
	}
	if int64(len(u.Data)) > s.opts.ThumbnailMaxBytes {
		return "", fmt.Errorf("thumbnail %q: %w", u.FileName, ErrFileTooLarge)
	}

	objectPath := path.Join(ThumbnailPrefix, uuid.NewString()+ext)
	url, err := s.blobs.Upload(ctx, objectPath, u.Data, u.ContentType)
	if err != nil {
		return "", err
	}
	s.logger.Info("thumbnail uploaded", "path", objectPath, "bytes", len(u.Data))
	return url, nil
}

// Delete removes one record from the store, then from the session.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	s.set.Remove(id)
	s.selection.Remove(id)
	s.audit.Record(ctx, AuditLogParams{
		Action:       ActionDelete,
		Collection:   store.ProductsCollection,
		RecordID:     id,
		RowsAffected: 1,
	})
	return nil
}

// Toggle flips id in the selection and reports whether it is now selected.
func (s *Service) Toggle(id string) bool {
	return s.selection.Toggle(id)
}

// SelectVisible adds every id on the current page of spec to the selection.
func (s *Service) SelectVisible(spec PageRequest) []string {
	ids := s.Query(spec.Spec, spec.Page, spec.PageSize).IDs()
	s.selection.SelectAllVisible(ids)
	return s.selection.IDs()
}

// ClearSelection empties the selection.
func (s *Service) ClearSelection() {
	s.selection.Clear()
}

// SelectedIDs returns the selection.
func (s *Service) SelectedIDs() []string {
	return s.selection.IDs()
}

// BulkSetStatus applies status to every selected record. The selection is
// cleared. Partial failures trigger a reconciling refresh.
func (s *Service) BulkSetStatus(ctx context.Context, status catalog.Status) selection.Result {
	batchID := uuid.NewString()
	res := s.bulk.BulkSetStatus(ctx, s.selection, status)
	s.auditBulk(ctx, ActionBulkStatus, batchID, string(status), res)
	s.reconcile(ctx, res)
	return res
}

// BulkDelete deletes every selected record. Local removal is optimistic
// and stands even when the store fails; the failure is reported and a
// reconciling refresh restores whatever the store still holds.
func (s *Service) BulkDelete(ctx context.Context) selection.Result {
	ids := s.selection.IDs()
	batchID := uuid.NewString()
	res := s.bulk.BulkDelete(ctx, ids)
	s.selection.Remove(ids...)
	s.auditBulk(ctx, ActionBulkDelete, batchID, "", res)
	s.reconcile(ctx, res)
	return res
}

// BulkExport serializes the selected records in set order. An empty
// selection yields a nil artifact and a message.
func (s *Service) BulkExport(ctx context.Context, format export.Format) (*export.Artifact, selection.Result, error) {
	art, res, err := s.bulk.BulkExport(s.selection.IDs(), format)
	if err != nil || art == nil {
		return art, res, err
	}
	s.audit.Record(ctx, AuditLogParams{
		Action:       ActionExport,
		Collection:   store.ProductsCollection,
		RowsAffected: art.Rows,
		FileName:     art.FileName,
	})
	return art, res, nil
}

func (s *Service) auditBulk(ctx context.Context, action AuditAction, batchID, value string, res selection.Result) {
	if res.Requested == 0 {
		return
	}
	s.audit.Record(ctx, AuditLogParams{
		Action:       action,
		Collection:   store.ProductsCollection,
		RecordIDs:    res.FailedIDs(),
		NewValue:     value,
		RowsAffected: res.Succeeded,
		RowsFailed:   len(res.Failed),
		BatchID:      batchID,
		Reason:       res.Message,
	})
}
