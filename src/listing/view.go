package listing

import (
	"errors"
	"fmt"
)

// Kind selects how a column is compared and converted.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
	KindEnum   Kind = "enum"
	KindList   Kind = "list"
)

var (
	ErrUnknownField    = errors.New("unknown field")
	ErrInvalidPageSize = errors.New("invalid page size")
)

// Column is one declared field of a view.
type Column struct {
	Name   string   `yaml:"name" json:"name"`
	Label  string   `yaml:"label" json:"label,omitempty"`
	Kind   Kind     `yaml:"kind" json:"kind"`
	Values []string `yaml:"values,omitempty" json:"values,omitempty"`
}

// View declares how one entity type is searched, filtered, sorted and exported.
type View struct {
	Name        string    `yaml:"name" json:"name"`
	Title       string    `yaml:"title" json:"title"`
	Columns     []Column  `yaml:"columns" json:"columns"`
	Searchable  []string  `yaml:"searchable" json:"searchable"`
	Filters     []string  `yaml:"filters" json:"filters"`
	DateField   string    `yaml:"dateField,omitempty" json:"dateField,omitempty"`
	DefaultSort SortState `yaml:"defaultSort,omitempty" json:"defaultSort"`
	NewestFirst bool      `yaml:"newestFirst,omitempty" json:"newestFirst,omitempty"`
	MaxRecords  int       `yaml:"maxRecords,omitempty" json:"maxRecords,omitempty"`
}

// Column returns the declared column named name.
func (v *View) Column(name string) (Column, bool) {
	for _, c := range v.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// KindOf returns the declared kind of a field, or "" when undeclared.
func (v *View) KindOf(name string) Kind {
	if v == nil {
		return ""
	}
	c, ok := v.Column(name)
	if !ok {
		return ""
	}
	return c.Kind
}

// ColumnNames lists the declared columns in order.
func (v *View) ColumnNames() []string {
	names := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		names[i] = c.Name
	}
	return names
}

// IsFilter reports whether key is a declared equality filter.
func (v *View) IsFilter(key string) bool {
	for _, f := range v.Filters {
		if f == key {
			return true
		}
	}
	return false
}

// Validate checks that every referenced field is a declared column.
func (v *View) Validate() error {
	if len(v.Columns) == 0 {
		return fmt.Errorf("view %s: no columns declared", v.Name)
	}
	seen := make(map[string]bool, len(v.Columns))
	for _, c := range v.Columns {
		if c.Name == "" {
			return fmt.Errorf("view %s: column without a name", v.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("view %s: duplicate column %q", v.Name, c.Name)
		}
		seen[c.Name] = true
		switch c.Kind {
		case KindString, KindNumber, KindDate, KindEnum, KindList:
		default:
			return fmt.Errorf("view %s: column %q has unknown kind %q", v.Name, c.Name, c.Kind)
		}
		if c.Kind == KindEnum && len(c.Values) == 0 {
			return fmt.Errorf("view %s: enum column %q declares no values", v.Name, c.Name)
		}
	}
	if !seen[IDField] {
		return fmt.Errorf("view %s: missing %q column", v.Name, IDField)
	}

	check := func(role, field string) error {
		if field != "" && !seen[field] {
			return fmt.Errorf("view %s: %s field %q: %w", v.Name, role, field, ErrUnknownField)
		}
		return nil
	}
	for _, f := range v.Searchable {
		if err := check("searchable", f); err != nil {
			return err
		}
	}
	for _, f := range v.Filters {
		if err := check("filter", f); err != nil {
			return err
		}
	}
	if err := check("date", v.DateField); err != nil {
		return err
	}
	if v.DateField != "" && v.KindOf(v.DateField) != KindDate {
		return fmt.Errorf("view %s: date field %q is not a date column", v.Name, v.DateField)
	}
	if err := check("sort", v.DefaultSort.Field); err != nil {
		return err
	}
	if v.DefaultSort.Direction != "" && !v.DefaultSort.Direction.Valid() {
		return fmt.Errorf("view %s: invalid default sort direction %q", v.Name, v.DefaultSort.Direction)
	}
	return nil
}
