package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/tradeops/backend/src/services"
	"github.com/username/tradeops/backend/src/utils"
)

type SourceHandler struct {
	tester *services.SourceTester
}

func NewSourceHandler(tester *services.SourceTester) *SourceHandler {
	return &SourceHandler{tester: tester}
}

// HandleTestSource checks an API source. A failed check is still a 200
// with ok=false in the body.
func (h *SourceHandler) HandleTestSource(w http.ResponseWriter, r *http.Request) {
	res, err := h.tester.Test(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		sendServiceError(w, r, err, "Source test")
		return
	}
	utils.SendJSON(w, res, http.StatusOK)
}
