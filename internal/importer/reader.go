package importer

// reader.go turns an uploaded CSV or XLSX file into header→value rows.
//
// Supplier sheets frequently carry a title block above the real header
// ("Commercial offer", dates, addresses). The header is the first row in
// the first MaxHeaderSearchRows rows that contains a known alias; if none
// does, the first non-empty row is used.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RawRow maps an original header to the cell value under it.
type RawRow map[string]string

// MaxHeaderSearchRows bounds how far down the header is looked for.
var MaxHeaderSearchRows = 10

// Format identifies an import file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from the file extension; unknown
// extensions are treated as CSV.
func DetectFormat(fileName string) Format {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xltx":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// ReadRows parses the whole file. Any structural problem is returned as a
// single *ParseError and no rows.
func ReadRows(fileName string, r io.Reader) ([]RawRow, error) {
	var (
		records [][]string
		err     error
	)
	switch DetectFormat(fileName) {
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		records, err = readCSV(r)
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &ParseError{File: fileName, Line: pe.Line, Err: pe.Err}
		}
		return nil, &ParseError{File: fileName, Err: err}
	}

	rows, err := toRows(records)
	if err != nil {
		return nil, &ParseError{File: fileName, Err: err}
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(WrapForImport(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func toRows(records [][]string) ([]RawRow, error) {
	headerIdx := findHeader(records)
	if headerIdx < 0 {
		return nil, ErrEmptyFile
	}

	header := make([]string, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		h = CleanCell(h)
		if h == "" {
			h = fmt.Sprintf("column %d", i+1)
		}
		header[i] = h
	}

	data := records[headerIdx+1:]
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	rows := make([]RawRow, 0, len(data))
	for _, rec := range data {
		row := make(RawRow, len(header))
		for i, h := range header {
			if i >= len(rec) {
				break
			}
			if prev, dup := row[h]; dup && strings.TrimSpace(prev) != "" {
				continue
			}
			row[h] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func findHeader(records [][]string) int {
	limit := MaxHeaderSearchRows
	if len(records) < limit {
		limit = len(records)
	}
	for i := 0; i < limit; i++ {
		for _, cell := range records[i] {
			if _, ok := LookupAlias(CleanCell(cell)); ok {
				return i
			}
			if headerLanguage(normalizeHeader(CleanCell(cell))) != "" {
				return i
			}
		}
	}
	for i, rec := range records {
		if !isEmptyRecord(rec) {
			return i
		}
	}
	return -1
}

func isEmptyRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
