// Package export serializes catalog records to CSV and XLSX.
//
// Both formats use the same fixed projection of columns. Fields outside the
// projection (specs, attributes, thumbnail, timestamps) are not exported.
package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/catalog/internal/catalog"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" and "xlsx" case-insensitively; empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

var (
	// ErrNothingToExport is returned for an empty record set; no file is produced.
	ErrNothingToExport = errors.New("nothing to export")

	// ErrUnsupportedFormat is returned for unknown formats.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Artifact is a downloadable export file.
type Artifact struct {
	Data        []byte
	ContentType string
	FileName    string
	Rows        int
}

// Header returns the column labels for languages, in export order.
func Header(languages []string) []string {
	h := make([]string, 0, len(languages)+12)
	for _, lang := range languages {
		h = append(h, "Name ("+lang+")")
	}
	return append(h,
		"SKU",
		"Price",
		"Cost",
		"Stock",
		"Low Stock Threshold",
		"Category",
		"Status",
		"Company",
		"Description",
		"Slug",
		"Meta Title",
		"Meta Description",
	)
}

// row projects a record onto the export columns.
func row(r catalog.Record, languages []string) []string {
	out := make([]string, 0, len(languages)+12)
	for _, lang := range languages {
		out = append(out, r.Name[lang])
	}
	threshold := ""
	if t, ok := r.Threshold(); ok {
		threshold = strconv.Itoa(t)
	}
	return append(out,
		r.SKU,
		r.Price.String(),
		r.Cost.String(),
		strconv.Itoa(r.Stock),
		threshold,
		r.Category,
		string(r.Status),
		r.Company,
		r.Description,
		r.SEO.Slug,
		r.SEO.Title,
		r.SEO.Description,
	)
}

// Serialize renders records in format. languages selects and orders the
// name columns.
func Serialize(records []catalog.Record, format Format, languages []string) (*Artifact, error) {
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}
	if len(languages) == 0 {
		languages = catalog.DefaultLanguages
	}

	switch format {
	case FormatCSV, "":
		return serializeCSV(records, languages), nil
	case FormatXLSX:
		return serializeXLSX(records, languages)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func fileName(ext string) string {
	return "products-" + time.Now().UTC().Format("2006-01-02") + "." + ext
}
