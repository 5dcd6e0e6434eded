package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/importer"
)

// importResponse is the JSON body of a finished import.
type importResponse struct {
	*importer.Report
	DurationMs int64  `json:"durationMs"`
	Summary    string `json:"summary"`
}

// handleImport imports a CSV or XLSX file sent as the "file" form field.
// Row failures are part of the report; only file-level problems are errors.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.openImportFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	report, err := s.service.Import(r.Context(), header.Filename, file)
	if err != nil {
		if errors.Is(err, core.ErrTooManyImports) {
			w.Header().Set("Retry-After", "30")
		}
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, importResponse{
		Report:     report,
		DurationMs: report.DurationMs(),
		Summary:    report.Summary(),
	})
}

// handleImportPreview reports what an import of the file would do without
// writing anything.
func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.openImportFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	preview, err := s.service.PreviewImport(header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

func (s *Server) openImportFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	maxSize := s.cfg.Import.MaxFileSize
	if r.ContentLength > maxSize {
		return nil, nil, fmt.Errorf("import of %d bytes, limit %d: %w", r.ContentLength, maxSize, core.ErrFileTooLarge)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, fmt.Errorf("import limit %d bytes: %w", maxSize, core.ErrFileTooLarge)
		}
		return nil, nil, fmt.Errorf("%w: %v", core.ErrBadRequest, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errNoFile
	}
	if header.Size == 0 {
		file.Close()
		return nil, nil, &importer.ParseError{File: header.Filename, Err: importer.ErrEmptyFile}
	}
	return file, header, nil
}
