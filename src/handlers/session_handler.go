package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/username/tradeops/backend/src/listing"
	"github.com/username/tradeops/backend/src/security/validation"
	"github.com/username/tradeops/backend/src/services"
	"github.com/username/tradeops/backend/src/utils"
)

// SessionHandler exposes the server-side list state of an admin: search
// input is debounced and every change resets or clamps the page the same
// way the table does.
type SessionHandler struct {
	records  *services.RecordService
	sessions *services.ListSessions
}

func NewSessionHandler(records *services.RecordService, sessions *services.ListSessions) *SessionHandler {
	return &SessionHandler{records: records, sessions: sessions}
}

// sessionPatch is one batch of list interactions. Fields left out are untouched.
type sessionPatch struct {
	Search      *string           `json:"search"`
	FlushSearch bool              `json:"flushSearch"`
	Filters     map[string]string `json:"filters"`
	From        *string           `json:"from"`
	To          *string           `json:"to"`
	Clear       bool              `json:"clear"`
	SortBy      string            `json:"sortBy"`
	PageSize    int               `json:"pageSize"`
	Page        int               `json:"page"`
	Move        string            `json:"move"`
}

type sessionResponse struct {
	State listing.State `json:"state"`
	listing.Page
}

func (h *SessionHandler) controller(w http.ResponseWriter, r *http.Request) (*listing.Controller, string, bool) {
	entity := chi.URLParam(r, "entity")
	view, err := h.records.Catalog().View(entity)
	if err != nil {
		sendServiceError(w, r, err, "List session")
		return nil, "", false
	}
	return h.sessions.Get(actor(r), view), entity, true
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, ctrl *listing.Controller, entity string) {
	records, _, err := h.records.All(r.Context(), entity)
	if err != nil {
		sendServiceError(w, r, err, "List session")
		return
	}
	res, err := ctrl.Query(records)
	if err != nil {
		sendServiceError(w, r, err, "List session")
		return
	}
	utils.SendJSON(w, sessionResponse{State: ctrl.State(), Page: res.Page}, http.StatusOK)
}

func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, entity, ok := h.controller(w, r)
	if !ok {
		return
	}
	h.respond(w, r, ctrl, entity)
}

func (h *SessionHandler) HandlePatchSession(w http.ResponseWriter, r *http.Request) {
	ctrl, entity, ok := h.controller(w, r)
	if !ok {
		return
	}
	var p sessionPatch
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := applyPatch(ctrl, p); err != nil {
		sendServiceError(w, r, err, "List session")
		return
	}
	h.respond(w, r, ctrl, entity)
}

// HandleDeleteSession resets the list state of the admin for entity.
func (h *SessionHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Drop(actor(r), chi.URLParam(r, "entity"))
	w.WriteHeader(http.StatusNoContent)
}

// checkedPatch is a sessionPatch whose every field has been validated
// against the view, so applying it cannot fail halfway.
type checkedPatch struct {
	sessionPatch
	setRange bool
	from, to time.Time
}

func validatePatch(view *listing.View, current listing.FilterState, p sessionPatch) (checkedPatch, error) {
	c := checkedPatch{sessionPatch: p}
	for key := range p.Filters {
		if !view.IsFilter(key) {
			return c, fmt.Errorf("filter %q: %w", key, listing.ErrUnknownField)
		}
	}
	if p.From != nil || p.To != nil {
		c.setRange = true
		c.from, c.to = current.From, current.To
		if p.Clear {
			c.from, c.to = time.Time{}, time.Time{}
		}
		var err error
		if p.From != nil {
			if c.from, err = parseBound(*p.From, "from", false); err != nil {
				return c, err
			}
		}
		if p.To != nil {
			if c.to, err = parseBound(*p.To, "to", true); err != nil {
				return c, err
			}
		}
		if view.DateField == "" && (!c.from.IsZero() || !c.to.IsZero()) {
			return c, fmt.Errorf("view %s has no date field: %w", view.Name, listing.ErrUnknownField)
		}
	}
	if p.SortBy != "" {
		if _, ok := view.Column(p.SortBy); !ok {
			return c, fmt.Errorf("sort %q: %w", p.SortBy, listing.ErrUnknownField)
		}
	}
	if p.PageSize != 0 && !listing.ValidPageSize(p.PageSize) {
		return c, fmt.Errorf("%w: %d", listing.ErrInvalidPageSize, p.PageSize)
	}
	switch p.Move {
	case "", "next", "prev":
	default:
		return c, fmt.Errorf("%w: move must be next or prev", validation.ErrValidationFailed)
	}
	return c, nil
}

// applyPatch validates the whole patch first and leaves the controller
// untouched when any part of it is rejected.
func applyPatch(ctrl *listing.Controller, p sessionPatch) error {
	c, err := validatePatch(ctrl.View(), ctrl.State().Filter, p)
	if err != nil {
		return err
	}
	if c.Clear {
		ctrl.ClearFilters()
	}
	if c.Search != nil {
		ctrl.SetSearch(strings.TrimSpace(*c.Search))
	}
	if c.FlushSearch {
		ctrl.FlushSearch()
	}
	for key, value := range c.Filters {
		if strings.EqualFold(value, allFilterValue) {
			value = ""
		}
		if err := ctrl.SetFilter(key, strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	if c.setRange {
		if err := ctrl.SetDateRange(c.from, c.to); err != nil {
			return err
		}
	}
	if c.SortBy != "" {
		if err := ctrl.ToggleSort(c.SortBy); err != nil {
			return err
		}
	}
	if c.PageSize != 0 {
		if err := ctrl.SetPageSize(c.PageSize); err != nil {
			return err
		}
	}
	if c.Page != 0 {
		ctrl.SetPage(c.Page)
	}
	switch c.Move {
	case "next":
		ctrl.NextPage()
	case "prev":
		ctrl.PrevPage()
	}
	return nil
}
