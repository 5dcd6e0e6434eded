package importer

import (
	"github.com/JonMunkholm/catalog/internal/catalog"
)

// Normalized is a record and the 1-based data row it came from.
type Normalized struct {
	Row    int
	Record catalog.Record
}

// NormalizeAll normalizes every row. Blank rows are skipped, rejected
// rows are collected in the report; neither stops the batch. Imported is
// left for the caller to count once records are persisted.
func (n *Normalizer) NormalizeAll(fileName string, rows []RawRow) ([]Normalized, *Report) {
	report := &Report{FileName: fileName, Total: len(rows)}
	records := make([]Normalized, 0, len(rows))

	for i, row := range rows {
		rec, ok, ierr := n.Normalize(row, i)
		switch {
		case !ok:
			report.Skipped++
		case ierr != nil:
			report.Fail(*ierr)
		default:
			records = append(records, Normalized{Row: i + 1, Record: rec})
		}
	}
	return records, report
}

// DuplicateSKUs returns SKUs that occur more than once in records, compared
// by catalog.SKUKey. Each is reported in its first spelling, in first-seen
// order.
func DuplicateSKUs(records []Normalized) []string {
	type entry struct {
		first string
		count int
	}
	seen := make(map[string]*entry, len(records))
	var dups []string
	for _, r := range records {
		key := catalog.SKUKey(r.Record.SKU)
		e, ok := seen[key]
		if !ok {
			e = &entry{first: r.Record.SKU}
			seen[key] = e
		}
		e.count++
		if e.count == 2 {
			dups = append(dups, e.first)
		}
	}
	return dups
}
