package listing

import (
	"sort"
	"strings"
)

// Direction is the sort order of a list.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Valid reports whether d is asc or desc.
func (d Direction) Valid() bool {
	return d == Asc || d == Desc
}

// ParseDirection maps user input to a Direction, defaulting to ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// SortState is the selected sort field and direction.
type SortState struct {
	Field     string    `yaml:"field" json:"field"`
	Direction Direction `yaml:"direction" json:"direction"`
}

// Toggle flips the direction when field is already selected and otherwise
// selects field ascending.
func (s SortState) Toggle(field string) SortState {
	if s.Field == field {
		if s.Direction == Desc {
			return SortState{Field: field, Direction: Asc}
		}
		return SortState{Field: field, Direction: Desc}
	}
	return SortState{Field: field, Direction: Asc}
}

// Compare orders a and b by field. Numbers compare by value, dates by
// instant and everything else lexically. Values that cannot be read as
// the expected kind sort before those that can.
func Compare(a, b Record, field string, kind Kind) int {
	va, vb := a[field], b[field]

	switch kind {
	case KindNumber:
		if c, ok := compareNumbers(va, vb); ok {
			return c
		}
	case KindDate:
		if c, ok := compareDates(va, vb); ok {
			return c
		}
	case KindString, KindEnum, KindList:
	default:
		na, oka := Number(va)
		nb, okb := Number(vb)
		if oka && okb {
			return na.Cmp(nb)
		}
		ta, oka := Instant(va)
		tb, okb := Instant(vb)
		if oka && okb {
			return ta.Compare(tb)
		}
	}
	return compareText(Text(va), Text(vb))
}

func compareNumbers(va, vb any) (int, bool) {
	na, oka := Number(va)
	nb, okb := Number(vb)
	switch {
	case oka && okb:
		return na.Cmp(nb), true
	case oka:
		return 1, true
	case okb:
		return -1, true
	}
	return 0, false
}

func compareDates(va, vb any) (int, bool) {
	ta, oka := Instant(va)
	tb, okb := Instant(vb)
	switch {
	case oka && okb:
		return ta.Compare(tb), true
	case oka:
		return 1, true
	case okb:
		return -1, true
	}
	return 0, false
}

func compareText(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Sort returns a sorted copy of records. Ties keep their input order.
func Sort(records []Record, view *View, s SortState) []Record {
	out := append([]Record(nil), records...)
	if s.Field == "" {
		return out
	}
	kind := view.KindOf(s.Field)
	sign := 1
	if s.Direction == Desc {
		sign = -1
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sign*Compare(out[i], out[j], s.Field, kind) < 0
	})
	return out
}
