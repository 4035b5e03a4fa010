package listing

import (
	"fmt"
	"sync"
	"time"
)

// DefaultSearchDelay is how long the search term must settle before it applies.
const DefaultSearchDelay = 300 * time.Millisecond

// State is a snapshot of a Controller.
type State struct {
	Filter        FilterState `json:"filter"`
	Sort          SortState   `json:"sort"`
	Page          int         `json:"page"`
	PageSize      int         `json:"pageSize"`
	PendingSearch *string     `json:"pendingSearch,omitempty"`
}

// Query returns the query the state describes.
func (s State) Query() Query {
	return Query{Filter: s.Filter, Sort: s.Sort, Page: s.Page, PageSize: s.PageSize}
}

// Controller keeps the filter, sort and page state of one list for one
// session. Search input is debounced; every other change applies at once.
type Controller struct {
	mu         sync.Mutex
	view       *View
	filter     FilterState
	pending    *string
	sort       SortState
	page       int
	size       int
	totalPages int
	debounce   *Debouncer
	onChange   func(State)
}

// NewController starts a controller on page 1 with the view's default sort.
func NewController(view *View, searchDelay time.Duration) *Controller {
	return &Controller{
		view:       view,
		sort:       view.DefaultSort,
		page:       1,
		size:       DefaultPageSize,
		totalPages: -1,
		debounce:   NewDebouncer(searchDelay),
	}
}

// OnChange registers a callback run after every applied change, including
// debounced search updates. It is called without the controller lock held.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) View() *View { return c.view }

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	f := c.filter
	if f.Equals != nil {
		f.Equals = make(map[string]string, len(c.filter.Equals))
		for k, v := range c.filter.Equals {
			f.Equals[k] = v
		}
	}
	s := State{Filter: f, Sort: c.sort, Page: c.page, PageSize: c.size}
	if c.pending != nil {
		p := *c.pending
		s.PendingSearch = &p
	}
	return s
}

// update runs fn under the lock and then notifies the listener.
func (c *Controller) update(fn func() error) error {
	c.mu.Lock()
	if err := fn(); err != nil {
		c.mu.Unlock()
		return err
	}
	st := c.stateLocked()
	cb := c.onChange
	c.mu.Unlock()
	if cb != nil {
		cb(st)
	}
	return nil
}

// SetSearch records term and applies it once input settles. Only the last
// term within the delay takes effect.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	c.pending = &term
	c.mu.Unlock()
	c.debounce.Trigger(func() { c.applySearch(term) })
}

// FlushSearch applies a pending search term immediately.
func (c *Controller) FlushSearch() {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return
	}
	term := *c.pending
	c.mu.Unlock()
	c.debounce.Cancel()
	c.applySearch(term)
}

func (c *Controller) applySearch(term string) {
	_ = c.update(func() error {
		c.pending = nil
		c.filter.Search = term
		c.page = 1
		return nil
	})
}

// SetFilter sets or, with an empty value, clears one equality filter.
func (c *Controller) SetFilter(key, value string) error {
	if !c.view.IsFilter(key) {
		return fmt.Errorf("filter %q: %w", key, ErrUnknownField)
	}
	return c.update(func() error {
		if value == "" {
			delete(c.filter.Equals, key)
		} else {
			if c.filter.Equals == nil {
				c.filter.Equals = make(map[string]string)
			}
			c.filter.Equals[key] = value
		}
		c.page = 1
		return nil
	})
}

// SetDateRange sets the inclusive date bounds. Zero times clear a bound.
func (c *Controller) SetDateRange(from, to time.Time) error {
	if c.view.DateField == "" && (!from.IsZero() || !to.IsZero()) {
		return fmt.Errorf("view %s has no date field: %w", c.view.Name, ErrUnknownField)
	}
	return c.update(func() error {
		c.filter.From, c.filter.To = from, to
		c.page = 1
		return nil
	})
}

// ClearFilters drops the search term, pending input, equality filters and date range.
func (c *Controller) ClearFilters() {
	c.debounce.Cancel()
	_ = c.update(func() error {
		c.pending = nil
		c.filter = FilterState{}
		c.page = 1
		return nil
	})
}

// ToggleSort flips the direction of the current field or selects a new one ascending.
func (c *Controller) ToggleSort(field string) error {
	if _, ok := c.view.Column(field); !ok {
		return fmt.Errorf("sort %q: %w", field, ErrUnknownField)
	}
	return c.update(func() error {
		c.sort = c.sort.Toggle(field)
		return nil
	})
}

// SetPageSize switches to one of PageSizes and returns to page 1.
func (c *Controller) SetPageSize(size int) error {
	if !ValidPageSize(size) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	return c.update(func() error {
		c.size = size
		c.page = 1
		return nil
	})
}

// SetPage moves to page, clamped to the pages seen by the last Query.
func (c *Controller) SetPage(page int) {
	_ = c.update(func() error {
		c.page = c.clampLocked(page)
		return nil
	})
}

func (c *Controller) NextPage() { c.SetPage(c.State().Page + 1) }

func (c *Controller) PrevPage() { c.SetPage(c.State().Page - 1) }

func (c *Controller) clampLocked(page int) int {
	if c.totalPages < 0 {
		if page < 1 {
			return 1
		}
		return page
	}
	return ClampPage(page, c.totalPages)
}

// Query runs the list pipeline over records with the current state and
// remembers the resulting page count for later clamping.
func (c *Controller) Query(records []Record) (Result, error) {
	c.mu.Lock()
	q := c.stateLocked().Query()
	c.mu.Unlock()

	res, err := Run(records, c.view, q)
	if err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	c.totalPages = res.TotalPages
	c.page = res.Page.Page
	c.mu.Unlock()
	return res, nil
}

// Close cancels a pending search.
func (c *Controller) Close() {
	c.debounce.Close()
}
