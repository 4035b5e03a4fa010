package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/utils"
)

const (
	csrfCookieName = "_tradeops_csrf"
	csrfHeaderName = "X-CSRF-Token"
	csrfTokenBytes = 32
	csrfTokenTTL   = time.Hour
)

func newCSRFToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GetCSRFToken issues a double-submit token: the browser keeps it in an
// HttpOnly cookie and the client echoes it in X-CSRF-Token.
func GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := newCSRFToken()
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to issue CSRF token", "error", err)
		utils.SendJSONError(w, "Failed to issue CSRF token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		MaxAge:   int(csrfTokenTTL.Seconds()),
	})
	w.Header().Set(csrfHeaderName, token)
	utils.SendJSON(w, map[string]string{"csrfToken": token}, http.StatusOK)
}

func csrfTokenMatches(r *http.Request) (bool, error) {
	header := r.Header.Get(csrfHeaderName)
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return false, err
	}
	if header == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) == 1, nil
}

// CSRFMiddleware rejects state-changing requests whose header token does
// not match the cookie. Safe methods pass, and so does everything when
// enabled is false.
func CSRFMiddleware(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			ok, cookieErr := csrfTokenMatches(r)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Bool("headerTokenExists", r.Header.Get(csrfHeaderName) != ""),
				slog.String("origin", r.Header.Get("Origin")),
			}
			if cookieErr != nil {
				attrs = append(attrs, slog.String("cookieError", cookieErr.Error()))
			}
			logger.FromContext(r.Context()).Warn("CSRF validation failed", attrs...)
			utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
		})
	}
}
