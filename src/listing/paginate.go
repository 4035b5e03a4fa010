package listing

// PageSizes are the page sizes a list may use.
var PageSizes = []int{10, 25, 50, 100}

const (
	DefaultPageSize = 10
	maxPageButtons  = 5
)

// ValidPageSize reports whether size is one of PageSizes.
func ValidPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// TotalPages is ceil(count / size).
func TotalPages(count, size int) int {
	if size <= 0 || count <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// ClampPage keeps page inside [1, totalPages], or 1 when there are no pages.
func ClampPage(page, totalPages int) int {
	if totalPages <= 0 || page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Page is one visible slice of a list plus the metadata the table footer shows.
type Page struct {
	Items        []Record `json:"items"`
	Page         int      `json:"page"`
	PageSize     int      `json:"pageSize"`
	TotalRecords int      `json:"totalRecords"`
	TotalPages   int      `json:"totalPages"`
	FirstIndex   int      `json:"firstIndex"`
	LastIndex    int      `json:"lastIndex"`
	HasPrev      bool     `json:"hasPrev"`
	HasNext      bool     `json:"hasNext"`
	PageButtons  []int    `json:"pageButtons"`
}

// Paginate slices records[(page-1)*size : page*size] after clamping page.
func Paginate(records []Record, page, size int) (Page, error) {
	if !ValidPageSize(size) {
		return Page{}, ErrInvalidPageSize
	}
	total := len(records)
	pages := TotalPages(total, size)
	page = ClampPage(page, pages)

	start := (page - 1) * size
	end := min(start+size, total)
	items := []Record{}
	if start < end {
		items = records[start:end]
	}

	p := Page{
		Items:        items,
		Page:         page,
		PageSize:     size,
		TotalRecords: total,
		TotalPages:   pages,
		HasPrev:      page > 1,
		HasNext:      page < pages,
		PageButtons:  PageButtons(page, pages),
	}
	if len(items) > 0 {
		p.FirstIndex = start + 1
		p.LastIndex = end
	}
	return p, nil
}

// PageButtons returns up to five page numbers centred on current, clamped
// to the first or last five near either end.
func PageButtons(current, total int) []int {
	if total <= 0 {
		return []int{}
	}
	first, last := 1, total
	if total > maxPageButtons {
		first = current - maxPageButtons/2
		if first < 1 {
			first = 1
		}
		last = first + maxPageButtons - 1
		if last > total {
			last = total
			first = last - maxPageButtons + 1
		}
	}
	buttons := make([]int, 0, last-first+1)
	for i := first; i <= last; i++ {
		buttons = append(buttons, i)
	}
	return buttons
}
