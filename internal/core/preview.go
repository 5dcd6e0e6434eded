package core

import (
	"io"
	"time"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/importer"
)

// PreviewSummary contains the summary counts for an import preview.
type PreviewSummary struct {
	TotalRows       int `json:"totalRows"`
	NewRows         int `json:"newRows"`
	ExistingRows    int `json:"existingRows"`
	ErrorRows       int `json:"errorRows"`
	SkippedRows     int `json:"skippedRows"`
	DuplicateInFile int `json:"duplicateInFile"`
}

// RowPreview is one normalized row as it would be created.
type RowPreview struct {
	LineNumber int            `json:"lineNumber"`
	Record     catalog.Record `json:"record"`
}

// DuplicatePreview lists the rows sharing one SKU inside the file.
type DuplicatePreview struct {
	SKU         string `json:"sku"`
	LineNumbers []int  `json:"lineNumbers"`
}

// PreviewResponse is the result of a dry-run import.
type PreviewResponse struct {
	FileName         string                 `json:"fileName"`
	Summary          PreviewSummary         `json:"summary"`
	NewRowSamples    []RowPreview           `json:"newRowSamples"`
	ErrorSamples     []importer.ImportError `json:"errorSamples"`
	DuplicateSamples []DuplicatePreview     `json:"duplicateSamples"`
	ExistingSKUs     []string               `json:"existingSkus"`
	ProcessingTimeMs int64                  `json:"processingTimeMs"`
}

// Sample limits
const (
	maxNewRowSamples    = 10
	maxErrorSamples     = 20
	maxDuplicateSamples = 10
	maxExistingSamples  = 20
)

// PreviewImport performs a read-only analysis of an import file: nothing
// is written and the session is not changed.
func (s *Service) PreviewImport(fileName string, r io.Reader) (*PreviewResponse, error) {
	startTime := time.Now()

	normalized, report, err := s.normalizeFile(fileName, r)
	if err != nil {
		return nil, err
	}

	resp := &PreviewResponse{
		FileName: fileName,
		Summary: PreviewSummary{
			TotalRows:   report.Total,
			ErrorRows:   report.Failed,
			SkippedRows: report.Skipped,
		},
		NewRowSamples:    []RowPreview{},
		ErrorSamples:     firstN(report.Errors, maxErrorSamples),
		DuplicateSamples: []DuplicatePreview{},
		ExistingSKUs:     []string{},
	}

	existing := s.set.SKUs()
	lines := make(map[string][]int, len(normalized))
	for _, n := range normalized {
		sku := n.Record.SKU
		key := catalog.SKUKey(sku)
		lines[key] = append(lines[key], n.Row)

		if _, ok := existing[key]; ok {
			resp.Summary.ExistingRows++
			if len(resp.ExistingSKUs) < maxExistingSamples {
				resp.ExistingSKUs = append(resp.ExistingSKUs, sku)
			}
			continue
		}
		if len(lines[key]) > 1 {
			continue
		}
		resp.Summary.NewRows++
		if len(resp.NewRowSamples) < maxNewRowSamples {
			resp.NewRowSamples = append(resp.NewRowSamples, RowPreview{LineNumber: n.Row, Record: n.Record})
		}
	}

	for _, sku := range importer.DuplicateSKUs(normalized) {
		rows := lines[catalog.SKUKey(sku)]
		resp.Summary.DuplicateInFile += len(rows) - 1
		if len(resp.DuplicateSamples) < maxDuplicateSamples {
			resp.DuplicateSamples = append(resp.DuplicateSamples, DuplicatePreview{SKU: sku, LineNumbers: rows})
		}
	}

	resp.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	return resp, nil
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		s = s[:n]
	}
	return append([]T{}, s...)
}
