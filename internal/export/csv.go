package export

import (
	"strings"

	"github.com/JonMunkholm/catalog/internal/catalog"
)

func serializeCSV(records []catalog.Record, languages []string) *Artifact {
	var sb strings.Builder
	writeLine(&sb, Header(languages))
	for _, r := range records {
		writeLine(&sb, row(r, languages))
	}
	return &Artifact{
		Data:        []byte(sb.String()),
		ContentType: "text/csv; charset=utf-8",
		FileName:    fileName("csv"),
		Rows:        len(records),
	}
}

func writeLine(sb *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(EscapeField(f))
	}
	sb.WriteByte('\n')
}

// EscapeField quotes s when it contains a comma, double quote or line
// break, doubling any embedded quotes.
func EscapeField(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
