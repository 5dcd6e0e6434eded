package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/core"
)

// multipart field names for product saves.
const (
	productField   = "product"
	thumbnailField = "thumbnail"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	req := s.parsePageRequest(r.URL.Query())
	writeJSON(w, r, http.StatusOK, s.service.Query(req.Spec, req.Page, req.PageSize))
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Facets())
}

// handleExport downloads the visible subset for the current filter.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := parseFormat(q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	art, err := s.service.Export(r.Context(), parseSpec(q), format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeArtifact(w, art)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	rec, thumb, err := s.readProduct(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec.ID = ""

	saved, err := s.service.Save(r.Context(), rec, thumb)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, saved)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.service.Get(id); err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, thumb, err := s.readProduct(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec.ID = id

	saved, err := s.service.Save(r.Context(), rec, thumb)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, saved)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readProduct decodes a product from a JSON body, or from a multipart form
// with the record JSON in the "product" field and an optional "thumbnail"
// file.
func (s *Server) readProduct(w http.ResponseWriter, r *http.Request) (catalog.Record, *core.Upload, error) {
	var rec catalog.Record

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := decodeJSON(r, &rec); err != nil {
			return rec, nil, err
		}
		return rec, nil, nil
	}

	// Allow the form fields some room on top of the thumbnail limit.
	limit := s.cfg.Blob.MaxThumbnailSize + 1<<20
	if r.ContentLength > limit {
		return rec, nil, fmt.Errorf("thumbnail: %w", core.ErrFileTooLarge)
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return rec, nil, fmt.Errorf("thumbnail: %w", core.ErrFileTooLarge)
		}
		return rec, nil, fmt.Errorf("%w: %v", core.ErrBadRequest, err)
	}
	if err := json.Unmarshal([]byte(r.FormValue(productField)), &rec); err != nil {
		return rec, nil, fmt.Errorf("%w: product field: %v", core.ErrBadRequest, err)
	}

	file, header, err := r.FormFile(thumbnailField)
	if errors.Is(err, http.ErrMissingFile) {
		return rec, nil, nil
	}
	if err != nil {
		return rec, nil, fmt.Errorf("%w: %v", core.ErrBadRequest, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return rec, nil, fmt.Errorf("read thumbnail: %w", err)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return rec, &core.Upload{FileName: header.Filename, ContentType: contentType, Data: data}, nil
}
