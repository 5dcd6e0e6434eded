package importer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/shopspring/decimal"
)

// Options tune the normalizer. Zero values fall back to defaults.
type Options struct {
	// Languages is the fixed language set for Name; EN must be included.
	Languages []string

	// DefaultThreshold is the low-stock threshold for rows without one.
	DefaultThreshold int

	// DefaultStatus applies when the status column is absent or unknown.
	DefaultStatus catalog.Status

	// RequireName rejects rows without a usable name instead of
	// synthesizing "Commercial Item N".
	RequireName bool
}

// DefaultLowStockThreshold is used when Options.DefaultThreshold is zero.
const DefaultLowStockThreshold = 5

// costRatio is the share of price assumed as cost when none is given.
var costRatio = decimal.NewFromFloat(0.8)

// Normalizer converts raw rows into catalog records. It is stateless and
// safe for concurrent use.
type Normalizer struct {
	opts      Options
	languages map[string]bool
}

// NewNormalizer creates a normalizer.
func NewNormalizer(opts Options) *Normalizer {
	if len(opts.Languages) == 0 {
		opts.Languages = catalog.DefaultLanguages
	}
	if opts.DefaultThreshold <= 0 {
		opts.DefaultThreshold = DefaultLowStockThreshold
	}
	if opts.DefaultStatus == "" {
		opts.DefaultStatus = catalog.StatusDraft
	}
	langs := make(map[string]bool, len(opts.Languages))
	for _, l := range opts.Languages {
		langs[strings.ToUpper(l)] = true
	}
	return &Normalizer{opts: opts, languages: langs}
}

// resolved is a raw row after header resolution.
type resolved struct {
	fields  map[string]string // canonical field -> value
	lowered map[string]string // lowercased header -> value
	keys    []string          // lowered headers, sorted
	names   map[string]string // language -> name from "name (xx)" columns
	extra   map[string]string // headers that matched nothing
	matched map[string]bool   // lowered headers claimed by the alias table
}

// Normalize converts one row. rowIndex is the 0-based data row index.
// ok is false for a blank row, which is skipped without error.
func (n *Normalizer) Normalize(row RawRow, rowIndex int) (rec catalog.Record, ok bool, ierr *ImportError) {
	if isBlankRow(row) {
		return catalog.Record{}, false, nil
	}

	res := n.resolve(row)
	rowNum := rowIndex + 1

	rec = catalog.Record{
		Name:        make(map[string]string, len(res.names)+1),
		Description: res.fields[FieldDescription],
		Company:     res.fields[FieldVendor],
	}
	if primary := n.extractName(res, rowIndex); primary != "" {
		rec.Name[catalog.PrimaryLanguage] = primary
	}
	for lang, v := range res.names {
		if lang != catalog.PrimaryLanguage {
			rec.Name[lang] = v
		}
	}

	name := rec.DisplayName(n.opts.Languages)
	if name == "" {
		return catalog.Record{}, true, &ImportError{Row: rowNum, Reason: "name is empty"}
	}

	rec.SKU = res.fields[FieldSKU]
	if rec.SKU == "" {
		rec.SKU = SynthesizeSKU(name, rowIndex)
	}

	rec.Price = firstPositive(res.lowered, priceHeaders)
	rec.Cost = firstPositive(res.lowered, costHeaders)
	if !rec.Cost.IsPositive() && rec.Price.IsPositive() {
		rec.Cost = rec.Price.Mul(costRatio)
	}
	rec.Stock = n.extractStock(res)

	threshold := n.opts.DefaultThreshold
	if v := res.fields[FieldLowStockThreshold]; v != "" {
		threshold = ParseQuantity(v)
	}
	rec.LowStockThreshold = &threshold

	rec.Category = res.fields[FieldCategory]
	if rec.Category == "" {
		rec.Category = InferCategory(rec.Description, name)
	}

	rec.Status = n.opts.DefaultStatus
	if st, ok := catalog.ParseStatus(res.fields[FieldStatus]); ok {
		rec.Status = st
	}

	if u := res.fields[FieldImageURL]; strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		rec.Thumbnail = u
	}

	for _, s := range []struct{ key, field string }{
		{"Tags", FieldTags},
		{"Taxable", FieldTaxable},
		{"Weight", FieldWeight},
		{"Dimensions", FieldDimensions},
	} {
		if v := res.fields[s.field]; v != "" {
			rec.Specs = append(rec.Specs, catalog.Spec{Key: s.key, Value: v})
		}
	}

	rec.SEO = catalog.SEO{
		Slug:        res.fields[FieldSlug],
		Title:       res.fields[FieldMetaTitle],
		Description: res.fields[FieldMetaDescription],
	}
	if rec.SEO.Slug == "" {
		rec.SEO.Slug = Slugify(name)
	}

	if len(res.extra) > 0 {
		rec.Attributes = res.extra
	}

	rec.Clamp()
	return rec, true, nil
}

func (n *Normalizer) resolve(row RawRow) resolved {
	res := resolved{
		fields:  make(map[string]string),
		lowered: make(map[string]string, len(row)),
		names:   make(map[string]string),
		extra:   make(map[string]string),
	}

	raw := make([]string, 0, len(row))
	for k := range row {
		raw = append(raw, k)
	}
	sort.Strings(raw)

	for _, k := range raw {
		lk := normalizeHeader(k)
		v := CleanCell(row[k])
		if prev, dup := res.lowered[lk]; dup && prev != "" {
			continue
		}
		if _, seen := res.lowered[lk]; !seen {
			res.keys = append(res.keys, lk)
		}
		res.lowered[lk] = v
	}

	matched := make(map[string]bool, len(res.lowered))
	res.matched = matched
	for _, a := range Aliases {
		for _, h := range a.Headers {
			v, present := res.lowered[h]
			if !present {
				continue
			}
			matched[h] = true
			if res.fields[a.Field] == "" && v != "" {
				res.fields[a.Field] = v
			}
		}
	}

	for _, lk := range res.keys {
		if matched[lk] {
			continue
		}
		if lang := headerLanguage(lk); lang != "" && n.languages[lang] {
			if v := res.lowered[lk]; v != "" {
				res.names[lang] = v
			}
			continue
		}
		if v := res.lowered[lk]; v != "" {
			res.extra[lk] = v
		}
	}
	return res
}

// extractName returns the EN name. It is "" when the row is named only by
// other per-language columns, which are never copied into EN.
func (n *Normalizer) extractName(res resolved, rowIndex int) string {
	for _, c := range []string{res.fields[FieldName], res.names[catalog.PrimaryLanguage]} {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	if len(res.names) > 0 {
		return ""
	}
	for _, c := range []string{res.fields[FieldDescription], res.fields[fieldProduct]} {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}

	// Only headers the alias table left unresolved are scanned.
	for _, k := range res.keys {
		if res.matched[k] || headerLanguage(k) != "" || excludedFromNameScan(k) {
			continue
		}
		v := strings.TrimSpace(res.lowered[k])
		if l := len([]rune(v)); l >= 5 && l <= 99 && !isNumeric(v) {
			return v
		}
	}

	if n.opts.RequireName {
		return ""
	}
	return fmt.Sprintf("Commercial Item %d", rowIndex+1)
}

// extractStock returns the first positive quantity. Sheets without any
// inventory column (commercial offers) default to 1; an explicit
// zero or unparsable quantity stays 0.
func (n *Normalizer) extractStock(res resolved) int {
	explicit := false
	for _, h := range quantityHeaders {
		v, ok := res.lowered[h]
		if !ok || v == "" {
			continue
		}
		explicit = true
		if q := ParseQuantity(v); q > 0 {
			return q
		}
	}
	if explicit {
		return 0
	}
	return 1
}

func firstPositive(lowered map[string]string, headers []string) decimal.Decimal {
	for _, h := range headers {
		v, ok := lowered[h]
		if !ok {
			continue
		}
		if d := ParseAmount(v); d.IsPositive() {
			return d
		}
	}
	return decimal.Zero
}

func excludedFromNameScan(header string) bool {
	for _, x := range nameScanExcluded {
		if strings.Contains(header, x) {
			return true
		}
	}
	return false
}

// SynthesizeSKU builds "IMP-{PREFIX}-{rowIndex+1}" where PREFIX is up to six
// upper-cased ASCII letters and digits from the name.
func SynthesizeSKU(name string, rowIndex int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if b.Len() == 6 {
			break
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	prefix := b.String()
	if prefix == "" {
		prefix = "ITEM"
	}
	return "IMP-" + prefix + "-" + strconv.Itoa(rowIndex+1)
}

// InferCategory applies the keyword table to the description, or to the
// name when there is no description.
func InferCategory(description, name string) string {
	text := description
	if strings.TrimSpace(text) == "" {
		text = name
	}
	text = strings.ToLower(text)

	category := DefaultCategory
	for _, kw := range CategoryKeywords {
		if strings.Contains(text, kw.Keyword) {
			category = kw.Category
		}
	}
	return category
}

// Slugify lowercases s and joins its letter/digit runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

func isBlankRow(row RawRow) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
