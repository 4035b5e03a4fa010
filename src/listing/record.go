// Package listing implements the generic list pipeline shared by every
// admin view: filter, sort and paginate over an ordered record collection.
package listing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IDField is the immutable identifier every record carries.
const IDField = "id"

// Record is a single row of a list view.
type Record map[string]any

// ID returns the record identifier as a string.
func (r Record) ID() string {
	return Text(r[IDField])
}

// Text returns the string form of a field.
func (r Record) Text(field string) string {
	return Text(r[field])
}

// Clone returns a deep copy of the record so callers can mutate it freely.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		cp := make([]any, len(t))
		for i := range t {
			cp[i] = cloneValue(t[i])
		}
		return cp
	case []string:
		return append([]string(nil), t...)
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, item := range t {
			cp[k] = cloneValue(item)
		}
		return cp
	default:
		return v
	}
}

// CloneAll deep-copies a slice of records.
func CloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// Text renders a field value the way it is shown in tables and exports.
// Missing values render as the empty string and lists are comma joined.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = Text(item)
		}
		return strings.Join(parts, ", ")
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Items returns the elements of a list-valued field, or the single value
// when the field is scalar.
func Items(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return t
	case []any:
		out := make([]string, len(t))
		for i, item := range t {
			out[i] = Text(item)
		}
		return out
	default:
		return []string{Text(v)}
	}
}

// Number parses a field value as a decimal.
func Number(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return t, true
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Instant parses a field value as a point in time.
func Instant(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		return ParseTime(t)
	default:
		return time.Time{}, false
	}
}

// ParseTime accepts ISO-8601 timestamps with or without a zone and bare dates.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isDateOnly reports whether s is a bare YYYY-MM-DD date.
func isDateOnly(s string) bool {
	_, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	return err == nil
}
