package importer

import (
	"regexp"
	"strings"
)

// Canonical field names produced by header resolution.
const (
	FieldName              = "name"
	FieldSKU               = "sku"
	FieldPrice             = "price"
	FieldCost              = "cost"
	FieldQuantity          = "quantity"
	FieldDescription       = "description"
	FieldCategory          = "category"
	FieldStatus            = "status"
	FieldVendor            = "vendor"
	FieldImageURL          = "imageUrl"
	FieldTags              = "tags"
	FieldTaxable           = "taxable"
	FieldWeight            = "weight"
	FieldDimensions        = "dimensions"
	FieldLowStockThreshold = "lowStockThreshold"
	FieldSlug              = "slug"
	FieldMetaTitle         = "metaTitle"
	FieldMetaDescription   = "metaDescription"

	// fieldProduct holds the generic "product"/"item" columns that only
	// serve as a name fallback after description.
	fieldProduct = "product"
)

// Alias maps a canonical field to the header spellings accepted for it.
// Aliases are lowercase and trimmed; earlier aliases take priority.
type Alias struct {
	Field   string
	Headers []string
}

// Aliases is the header alias table, in resolution order.
var Aliases = []Alias{
	{Field: FieldName, Headers: []string{"name", "product name", "item name", "title", "product title"}},
	{Field: FieldSKU, Headers: []string{"sku", "code", "id", "product code", "item code", "article", "article number"}},
	{Field: FieldPrice, Headers: []string{"price", "unit price", "price per unit", "selling price", "retail price", "amount", "rate"}},
	{Field: FieldCost, Headers: []string{"cost", "unit cost", "purchase price", "wholesale", "wholesale price", "cost price"}},
	{Field: FieldQuantity, Headers: []string{"quantity", "qty", "number of units", "no. of unit", "count", "units", "stock", "inventory", "on hand"}},
	{Field: FieldDescription, Headers: []string{"description", "desc", "details", "product description", "item description"}},
	{Field: FieldCategory, Headers: []string{"category", "product category", "type", "group"}},
	{Field: FieldStatus, Headers: []string{"status", "state"}},
	{Field: FieldVendor, Headers: []string{"vendor", "company", "brand", "manufacturer", "supplier"}},
	{Field: FieldImageURL, Headers: []string{"image url", "imageurl", "image_url", "image", "thumbnail", "photo", "picture"}},
	{Field: FieldTags, Headers: []string{"tags", "tag", "keywords"}},
	{Field: FieldTaxable, Headers: []string{"taxable", "tax", "vat"}},
	{Field: FieldWeight, Headers: []string{"weight"}},
	{Field: FieldDimensions, Headers: []string{"dimensions", "size"}},
	{Field: FieldLowStockThreshold, Headers: []string{"low stock threshold", "lowstockthreshold", "threshold", "reorder level", "min stock", "minimum stock"}},
	{Field: FieldSlug, Headers: []string{"slug", "url slug"}},
	{Field: FieldMetaTitle, Headers: []string{"meta title", "seo title"}},
	{Field: FieldMetaDescription, Headers: []string{"meta description", "seo description"}},
	{Field: fieldProduct, Headers: []string{"product", "item"}},
}

// Numeric candidate headers, in priority order.
var (
	priceHeaders    = []string{"price", "unit price", "price per unit", "cost", "amount", "rate", "selling price", "retail price"}
	quantityHeaders = []string{"quantity", "qty", "number of units", "no. of unit", "count", "units", "stock", "inventory", "on hand"}
	costHeaders     = []string{"cost", "unit cost", "purchase price", "wholesale", "wholesale price", "cost price"}
)

// Name-scan exclusions: headers containing any of these never supply a name.
var nameScanExcluded = []string{"price", "quantity", "sku", "code"}

// CategoryKeyword maps a description keyword to an inferred category.
type CategoryKeyword struct {
	Keyword  string
	Category string
}

// DefaultCategory is assigned when a row carries no explicit category.
const DefaultCategory = "Commercial Products"

// CategoryKeywords is checked in declared order; a later match overrides
// an earlier one.
var CategoryKeywords = []CategoryKeyword{
	{Keyword: "lock", Category: "Safety Locks"},
	{Keyword: "chain", Category: "Safety Chains"},
	{Keyword: "box", Category: "Storage Solutions"},
	{Keyword: "cabinet", Category: "Storage Solutions"},
}

var aliasIndex = func() map[string]string {
	idx := make(map[string]string)
	for _, a := range Aliases {
		for _, h := range a.Headers {
			if _, dup := idx[h]; !dup {
				idx[h] = a.Field
			}
		}
	}
	return idx
}()

// LookupAlias returns the canonical field for a header, if any.
func LookupAlias(header string) (string, bool) {
	f, ok := aliasIndex[normalizeHeader(header)]
	return f, ok
}

// languageHeader matches "name (ru)", "name [ru]", "name_ru" and "name-ru".
var languageHeader = regexp.MustCompile(`^name\s*(?:\(\s*([a-z]{2})\s*\)|\[\s*([a-z]{2})\s*\]|[_-]([a-z]{2}))$`)

// headerLanguage returns the upper-cased language code of a per-language
// name header, or "".
func headerLanguage(header string) string {
	m := languageHeader.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return strings.ToUpper(g)
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
