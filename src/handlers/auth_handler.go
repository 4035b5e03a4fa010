// src/handlers/auth_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/security/validation"
	"github.com/username/tradeops/backend/src/services"
	"github.com/username/tradeops/backend/src/utils"
)

type AuthHandler struct {
	accounts *services.AccountService
}

func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		ctxLogger.Warn("Invalid request body for login", "error", err)
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	credentials.Username = validation.SanitizeText(strings.TrimSpace(credentials.Username))

	session, err := h.accounts.Login(credentials.Username, credentials.Password, strings.TrimSpace(credentials.Code))
	switch {
	case err == nil:
	case errors.Is(err, services.ErrMFARequired):
		utils.SendJSON(w, map[string]any{"error": err.Error(), "mfa_required": true}, http.StatusUnauthorized)
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.SendJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	default:
		sendServiceError(w, r, err, "Login")
		return
	}

	ctxLogger.Info("Admin login successful", "username", session.Username)
	utils.SendJSON(w, session, http.StatusOK)
}

// HandleMe returns the identity carried by the access token.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	utils.SendJSON(w, map[string]any{
		"username":    claims.Subject,
		"role":        claims.Role,
		"mfa_enabled": h.accounts.MFAEnabled(),
	}, http.StatusOK)
}
