package handlers

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/username/tradeops/backend/src/listing"
	"github.com/username/tradeops/backend/src/security/validation"
)

const (
	filterParamPrefix = "filter["
	filterParamSuffix = "]"
	// allFilterValue is what the UI sends for its "All" option.
	allFilterValue = "all"
	maxPageParam   = 1_000_000
)

// parseQuery reads the list query string: q, filter[key] or a bare
// declared filter key, from, to, sort, order, page and pageSize.
func parseQuery(values url.Values, view *listing.View) (listing.Query, error) {
	q := listing.Query{}

	search := strings.TrimSpace(values.Get("q"))
	if err := validation.ValidateStringMaxLength(search, validation.MaxSearchLength, "q"); err != nil {
		return q, err
	}
	q.Filter.Search = search

	for key, vals := range values {
		name := key
		if strings.HasPrefix(key, filterParamPrefix) && strings.HasSuffix(key, filterParamSuffix) {
			name = strings.TrimSuffix(strings.TrimPrefix(key, filterParamPrefix), filterParamSuffix)
		} else if !view.IsFilter(key) {
			continue
		}
		value := strings.TrimSpace(vals[0])
		if value == "" || strings.EqualFold(value, allFilterValue) {
			continue
		}
		if q.Filter.Equals == nil {
			q.Filter.Equals = make(map[string]string)
		}
		q.Filter.Equals[name] = value
	}

	var err error
	if q.Filter.From, err = parseBound(values.Get("from"), "from", false); err != nil {
		return q, err
	}
	if q.Filter.To, err = parseBound(values.Get("to"), "to", true); err != nil {
		return q, err
	}

	q.Sort.Field = strings.TrimSpace(values.Get("sort"))
	if q.Sort.Field != "" {
		q.Sort.Direction = listing.ParseDirection(values.Get("order"))
	}

	if q.Page, err = validation.ValidateIntString(values.Get("page"), "page", 1, 1, maxPageParam); err != nil {
		return q, err
	}
	if q.PageSize, err = validation.ValidateIntString(values.Get("pageSize"), "pageSize", listing.DefaultPageSize, 1, maxPageParam); err != nil {
		return q, err
	}
	return q, q.Check(view)
}

func parseBound(raw, field string, upper bool) (t time.Time, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return t, nil
	}
	parsed, ok := listing.ParseBound(raw, upper)
	if !ok {
		return t, fmt.Errorf("%w: %s ('%s') is not a valid date", validation.ErrValidationFailed, field, raw)
	}
	return parsed, nil
}
