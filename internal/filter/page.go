package filter

import "github.com/JonMunkholm/catalog/internal/catalog"

// DefaultPageSize is used when a page size is not positive.
const DefaultPageSize = 25

// Page is one page of a filtered record set.
type Page struct {
	Records    []catalog.Record `json:"records"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	Total      int              `json:"total"`
	TotalPages int              `json:"totalPages"`
}

// IDs returns the ids of the records on the page.
func (p Page) IDs() []string {
	ids := make([]string, 0, len(p.Records))
	for _, r := range p.Records {
		ids = append(ids, r.ID)
	}
	return ids
}

// Paginate slices records into pages. page is 1-based and is clamped to
// the valid range.
func Paginate(records []catalog.Record, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(records)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)

	return Page{
		Records:    records[start:end],
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
