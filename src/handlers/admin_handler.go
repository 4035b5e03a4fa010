// src/handlers/admin_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/services"
	"github.com/username/tradeops/backend/src/utils"
)

// AdminHandler serves the dashboard counters and the operator MFA setup.
type AdminHandler struct {
	stats    *services.StatsService
	accounts *services.AccountService
}

func NewAdminHandler(stats *services.StatsService, accounts *services.AccountService) *AdminHandler {
	return &AdminHandler{stats: stats, accounts: accounts}
}

func (h *AdminHandler) HandleGetAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Dashboard(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "Dashboard stats")
		return
	}
	utils.SendJSON(w, stats, http.StatusOK)
}

func (h *AdminHandler) HandleAdminClearStatsCache(w http.ResponseWriter, r *http.Request) {
	h.stats.Invalidate()
	logger.FromContext(r.Context()).Info("Dashboard stats cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) HandleSetupMFA(w http.ResponseWriter, r *http.Request) {
	secret, qrCode, err := h.accounts.SetupMFA()
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to generate MFA secret", "error", err)
		utils.SendJSONError(w, "Failed to generate MFA", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]string{
		"secret":  secret,
		"qr_code": qrCode,
	}, http.StatusOK)
}

func (h *AdminHandler) HandleEnableMFA(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.accounts.EnableMFA(req.Code); err != nil {
		sendServiceError(w, r, err, "Enable MFA")
		return
	}
	utils.SendJSON(w, map[string]string{"message": "MFA enabled"}, http.StatusOK)
}
