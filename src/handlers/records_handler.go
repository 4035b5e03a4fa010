// src/handlers/records_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/tradeops/backend/src/listing"
	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/security"
	"github.com/username/tradeops/backend/src/services"
	"github.com/username/tradeops/backend/src/utils"
)

const (
	adminsEntity    = "admins"
	maxJSONBodySize = 1 << 20
)

// RecordHandler serves the generic list, detail and mutation routes of
// every declared entity.
type RecordHandler struct {
	records *services.RecordService
}

func NewRecordHandler(records *services.RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

// HandleGetViews returns the view declarations the UI renders from.
func (h *RecordHandler) HandleGetViews(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, map[string]any{"views": h.records.Catalog().Views()}, http.StatusOK)
}

func (h *RecordHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	view, err := h.records.Catalog().View(entity)
	if err != nil {
		sendServiceError(w, r, err, "List records")
		return
	}
	q, err := parseQuery(r.URL.Query(), view)
	if err != nil {
		sendServiceError(w, r, err, "List records")
		return
	}
	res, err := h.records.List(r.Context(), entity, q)
	if err != nil {
		sendServiceError(w, r, err, "List records")
		return
	}
	utils.SendJSON(w, res.Page, http.StatusOK)
}

func (h *RecordHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.Get(r.Context(), chi.URLParam(r, "entity"), chi.URLParam(r, "id"))
	if err != nil {
		sendServiceError(w, r, err, "Get record")
		return
	}
	utils.SendJSON(w, rec, http.StatusOK)
}

// decodeRecord reads a JSON object body of bounded size.
func decodeRecord(w http.ResponseWriter, r *http.Request) (listing.Record, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	var payload listing.Record
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload == nil {
		logger.FromContext(r.Context()).Warn("Invalid record body", "error", err)
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return payload, true
}

// canWrite reports whether the signed-in admin may change entity. Only
// super admins manage other admins.
func canWrite(w http.ResponseWriter, r *http.Request, entity string) bool {
	if entity == adminsEntity && !hasRole(r, security.RoleSuperAdmin) {
		logger.FromContext(r.Context()).Warn("Admin management denied", "admin", actor(r))
		utils.SendJSONError(w, "Forbidden: super admin role required", http.StatusForbidden)
		return false
	}
	return true
}

func (h *RecordHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	if !canWrite(w, r, entity) {
		return
	}
	payload, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	rec, err := h.records.Create(r.Context(), entity, actor(r), payload)
	if err != nil {
		sendServiceError(w, r, err, "Create record")
		return
	}
	logger.FromContext(r.Context()).Info("Record created", "entity", entity, "id", rec.ID())
	utils.SendJSON(w, rec, http.StatusCreated)
}

func (h *RecordHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	entity, id := chi.URLParam(r, "entity"), chi.URLParam(r, "id")
	if !canWrite(w, r, entity) {
		return
	}
	patch, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	rec, err := h.records.Update(r.Context(), entity, actor(r), id, patch)
	if err != nil {
		sendServiceError(w, r, err, "Update record")
		return
	}
	utils.SendJSON(w, rec, http.StatusOK)
}

func (h *RecordHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	entity, id := chi.URLParam(r, "entity"), chi.URLParam(r, "id")
	if !canWrite(w, r, entity) {
		return
	}
	if err := h.records.Delete(r.Context(), entity, actor(r), id); err != nil {
		sendServiceError(w, r, err, "Delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTransition moves a record along its status lifecycle.
func (h *RecordHandler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	entity, id := chi.URLParam(r, "entity"), chi.URLParam(r, "id")
	if !canWrite(w, r, entity) {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	rec, err := h.records.Transition(r.Context(), entity, actor(r), id, req.Status)
	if err != nil {
		sendServiceError(w, r, err, "Status transition")
		return
	}
	utils.SendJSON(w, rec, http.StatusOK)
}
