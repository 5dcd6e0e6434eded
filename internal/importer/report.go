package importer

import (
	"errors"
	"fmt"
	"time"
)

// ImportError describes why a single row was not imported. Row is 1-based.
type ImportError struct {
	Row    int    `json:"row"`
	SKU    string `json:"sku,omitempty"`
	Reason string `json:"reason"`
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// ParseError aborts an import before any row is normalized.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid file %s (line %d): %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("invalid file %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrEmptyFile is wrapped in a ParseError when a file has no data rows.
var ErrEmptyFile = errors.New("empty file")

// Report summarises an import. Skipped rows were blank and count as
// neither imported nor failed.
type Report struct {
	FileName string        `json:"fileName"`
	Total    int           `json:"total"`
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Errors   []ImportError `json:"errors,omitempty"`
	Duration time.Duration `json:"-"`
}

// DurationMs is exposed for JSON consumers.
func (r *Report) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// Fail records a failed row.
func (r *Report) Fail(e ImportError) {
	r.Failed++
	r.Errors = append(r.Errors, e)
}

// Summary is the one-line, user-facing outcome.
func (r *Report) Summary() string {
	if r.Failed == 0 {
		return fmt.Sprintf("imported %d products", r.Imported)
	}
	return fmt.Sprintf("imported %d products, %d failed", r.Imported, r.Failed)
}
