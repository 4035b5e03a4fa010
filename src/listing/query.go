package listing

import "fmt"

// Query is everything needed to render one page of a list.
type Query struct {
	Filter   FilterState `json:"filter"`
	Sort     SortState   `json:"sort"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// Result is the visible page plus the ordered, unpaginated collection
// that exports consume.
type Result struct {
	Page
	All []Record `json:"-"`
}

// Check reports the first field or page size q refers to that view does not allow.
func (q Query) Check(view *View) error {
	for key := range q.Filter.Equals {
		if !view.IsFilter(key) {
			return fmt.Errorf("filter %q: %w", key, ErrUnknownField)
		}
	}
	if q.Sort.Field != "" {
		if _, ok := view.Column(q.Sort.Field); !ok {
			return fmt.Errorf("sort %q: %w", q.Sort.Field, ErrUnknownField)
		}
	}
	if q.PageSize != 0 && !ValidPageSize(q.PageSize) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, q.PageSize)
	}
	return nil
}

// Run filters, orders and paginates records. The input is left untouched.
func Run(records []Record, view *View, q Query) (Result, error) {
	if err := q.Check(view); err != nil {
		return Result{}, err
	}
	size := q.PageSize
	if size == 0 {
		size = DefaultPageSize
	}

	ordered := Order(Filter(records, view, q.Filter), view, q.Sort)
	page, err := Paginate(ordered, q.Page, size)
	if err != nil {
		return Result{}, err
	}
	return Result{Page: page, All: ordered}, nil
}

// Order applies s, falling back to the view's default sort. Views that list
// newest entries first are reversed when no sort applies.
func Order(records []Record, view *View, s SortState) []Record {
	if s.Field == "" {
		s = view.DefaultSort
	}
	if s.Field == "" {
		out := append([]Record(nil), records...)
		if view.NewestFirst {
			for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
				out[i], out[j] = out[j], out[i]
			}
		}
		return out
	}
	if s.Direction == "" {
		s.Direction = Asc
	}
	return Sort(records, view, s)
}
