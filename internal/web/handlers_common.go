package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/export"
	"github.com/JonMunkholm/catalog/internal/filter"
)

// maxMultipartMemory is the part of a multipart body kept in memory;
// the rest spills to temporary files.
const maxMultipartMemory = 8 << 20

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(q url.Values, name string, defaultVal int) int {
	val := q.Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseSpec reads a filter spec from query parameters. Unknown sort fields
// fall back to the unsorted order.
func parseSpec(q url.Values) filter.Spec {
	spec := filter.Spec{
		Search:   strings.TrimSpace(q.Get("search")),
		Company:  q.Get("company"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Stock:    q.Get("stock"),
		SortBy:   filter.SortField(q.Get("sort")),
		SortDir:  filter.Asc,
	}
	if !filter.ValidSortField(spec.SortBy) {
		spec.SortBy = filter.SortNone
	}
	if strings.EqualFold(q.Get("dir"), string(filter.Desc)) {
		spec.SortDir = filter.Desc
	}
	return spec
}

// parsePageRequest reads a spec plus page and pageSize.
func (s *Server) parsePageRequest(q url.Values) core.PageRequest {
	return core.PageRequest{
		Spec:     parseSpec(q),
		Page:     parseIntParam(q, "page", 1),
		PageSize: parseIntParam(q, "pageSize", s.cfg.Catalog.PageSize),
	}
}

// parseFormat reads the export format, defaulting to CSV.
func parseFormat(q url.Values) (export.Format, error) {
	return export.ParseFormat(q.Get("format"))
}

// parseDate parses a YYYY-MM-DD parameter; endOfDay moves it to the
// following midnight so the whole day is included.
func parseDate(q url.Values, name string, endOfDay bool) (time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", core.ErrBadRequest, name)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

// writeArtifact sends an export file as a download.
func writeArtifact(w http.ResponseWriter, art *export.Artifact) {
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Header().Set("X-Export-Rows", strconv.Itoa(art.Rows))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}
