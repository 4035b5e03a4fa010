// src/security/validation/sanitizers.go
package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText strips every HTML tag and attribute from s. The policy's
// entity encoding is undone so "Barnes & Noble" is stored as typed; the pass
// repeats until stable so encoded markup like "&lt;b&gt;" cannot survive it.
func SanitizeText(s string) string {
	for i := 0; i < 3; i++ {
		next := html.UnescapeString(strictHTMLPolicy.Sanitize(s))
		if next == s {
			break
		}
		s = next
	}
	return s
}

// formulaTriggers start a formula in Excel, LibreOffice and Sheets.
const formulaTriggers = "=+-@\t\r"

// IsFormulaLike reports whether s would be evaluated as a formula by a spreadsheet.
func IsFormulaLike(s string) bool {
	trimmed := strings.TrimLeft(s, " ")
	return trimmed != "" && strings.ContainsRune(formulaTriggers, rune(trimmed[0]))
}

// SanitizeForFormulaInjection prefixes formula-like cells with a single quote
// so spreadsheets treat them as text.
func SanitizeForFormulaInjection(s string) string {
	if IsFormulaLike(s) {
		return "'" + s
	}
	return s
}

// StripUnprintable drops control characters other than tab, newline and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// SanitizeValue cleans every string inside v, descending into lists and objects.
func SanitizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(SanitizeText(StripUnprintable(t)))
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = SanitizeValue(item)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, item := range t {
			out[i] = strings.TrimSpace(SanitizeText(StripUnprintable(item)))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = SanitizeValue(item)
		}
		return out
	default:
		return v
	}
}

// SanitizeFields cleans every value of a decoded JSON object.
func SanitizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = SanitizeValue(v)
	}
	return out
}
