package listing

import (
	"strings"
	"time"
)

// FilterState is the search term, equality filters and date range applied to a list.
type FilterState struct {
	Search string            `json:"search"`
	Equals map[string]string `json:"equals,omitempty"`
	From   time.Time         `json:"from,omitempty"`
	To     time.Time         `json:"to,omitempty"`
}

// Active reports whether any constraint is set.
func (f FilterState) Active() bool {
	if strings.TrimSpace(f.Search) != "" || !f.From.IsZero() || !f.To.IsZero() {
		return true
	}
	for _, v := range f.Equals {
		if v != "" {
			return true
		}
	}
	return false
}

// ParseBound parses a date-range bound. A bare date used as the upper
// bound covers the whole day.
func ParseBound(s string, upper bool) (time.Time, bool) {
	t, ok := ParseTime(s)
	if !ok {
		return time.Time{}, false
	}
	if upper && isDateOnly(s) {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}

// Match reports whether record satisfies every active constraint of f.
func Match(record Record, view *View, f FilterState) bool {
	if term := strings.TrimSpace(f.Search); term != "" {
		if !matchSearch(record, view.Searchable, strings.ToLower(term)) {
			return false
		}
	}

	for key, want := range f.Equals {
		if want == "" {
			continue
		}
		if !matchEquals(record[key], view.KindOf(key), want) {
			return false
		}
	}

	if view.DateField != "" && (!f.From.IsZero() || !f.To.IsZero()) {
		at, ok := Instant(record[view.DateField])
		if !ok {
			return false
		}
		if !f.From.IsZero() && at.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && at.After(f.To) {
			return false
		}
	}
	return true
}

func matchSearch(record Record, fields []string, term string) bool {
	for _, field := range fields {
		for _, item := range Items(record[field]) {
			if strings.Contains(strings.ToLower(item), term) {
				return true
			}
		}
	}
	return false
}

// matchEquals compares the string form exactly; list fields match when
// any element equals the wanted value.
func matchEquals(v any, kind Kind, want string) bool {
	if kind == KindList {
		for _, item := range Items(v) {
			if item == want {
				return true
			}
		}
		return false
	}
	return Text(v) == want
}

// Filter returns the records matching f in their original relative order.
// The input slice is never modified.
func Filter(records []Record, view *View, f FilterState) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if Match(r, view, f) {
			out = append(out, r)
		}
	}
	return out
}
