// src/handlers/router.go
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/tradeops/backend/src/export"
	"github.com/username/tradeops/backend/src/security"
	"github.com/username/tradeops/backend/src/services"
	"github.com/username/tradeops/backend/src/utils"
	"golang.org/x/time/rate"
)

// Deps is everything the HTTP surface is built from.
type Deps struct {
	// Base is the server lifetime context handed to background work.
	Base           context.Context
	Auth           *security.AuthService
	Accounts       *services.AccountService
	Records        *services.RecordService
	Sessions       *services.ListSessions
	Imports        *services.ImportService
	Stats          *services.StatsService
	Feed           *services.LiveFeed
	Tester         *services.SourceTester
	Exporter       *export.Exporter
	ExportGuard    *export.Guard
	AllowedOrigins []string
	CSRFEnabled    bool
	RateLimitRPS   float64
	RateLimitBurst int
	MaxUploadSize  int64
}

func NewRouter(d Deps) http.Handler {
	if d.Base == nil {
		d.Base = context.Background()
	}
	recordHandler := NewRecordHandler(d.Records)
	exportHandler := NewExportHandler(d.Records, d.Exporter, d.ExportGuard)
	sessionHandler := NewSessionHandler(d.Records, d.Sessions)
	uploadHandler := NewUploadHandler(d.Imports, d.MaxUploadSize)
	feedHandler := NewFeedHandler(d.Base, d.Feed, d.AllowedOrigins)
	sourceHandler := NewSourceHandler(d.Tester)
	adminHandler := NewAdminHandler(d.Stats, d.Accounts)
	authHandler := NewAuthHandler(d.Accounts)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware)
	r.Use(ProxyHeadersMiddleware)
	r.Use(CORSMiddleware(d.AllowedOrigins))
	if d.RateLimitRPS > 0 {
		r.Use(RateLimitMiddleware(rate.NewLimiter(rate.Limit(d.RateLimitRPS), d.RateLimitBurst)))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, map[string]string{"message": "TradeOps backend is running"}, http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.SendJSON(w, map[string]any{"status": "ok", "time": time.Now().UTC()}, http.StatusOK)
		})
		r.Get("/auth/csrf", GetCSRFToken)

		r.Group(func(r chi.Router) {
			r.Use(CSRFMiddleware(d.CSRFEnabled))
			r.Post("/auth/login", authHandler.LoginHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Auth))
			r.Use(CSRFMiddleware(d.CSRFEnabled))

			r.Get("/auth/me", authHandler.HandleMe)
			r.Get("/views", recordHandler.HandleGetViews)

			r.Route("/records/{entity}", func(r chi.Router) {
				r.Get("/", recordHandler.HandleList)
				r.Post("/", recordHandler.HandleCreate)
				r.Get("/export", exportHandler.HandleExport)
				r.Get("/export/bundle", exportHandler.HandleExportBundle)
				r.Post("/import", uploadHandler.HandleImport)
				r.Get("/session", sessionHandler.HandleGetSession)
				r.Patch("/session", sessionHandler.HandlePatchSession)
				r.Delete("/session", sessionHandler.HandleDeleteSession)
				r.Get("/{id}", recordHandler.HandleGet)
				r.Put("/{id}", recordHandler.HandleUpdate)
				r.Delete("/{id}", recordHandler.HandleDelete)
				r.Post("/{id}/status", recordHandler.HandleTransition)
			})

			r.Post("/sources/{id}/test", sourceHandler.HandleTestSource)

			r.Get("/logs/live", feedHandler.HandleLiveLogs)
			r.Get("/logs/live/status", feedHandler.HandleLiveStatus)
			r.Post("/logs/live/start", feedHandler.HandleStartLive)
			r.Post("/logs/live/stop", feedHandler.HandleStopLive)

			r.Get("/admin/stats", adminHandler.HandleGetAdminStats)
			r.Post("/admin/stats/clear-cache", adminHandler.HandleAdminClearStatsCache)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(security.RoleSuperAdmin))
				r.Get("/admin/mfa/setup", adminHandler.HandleSetupMFA)
				r.Post("/admin/mfa/enable", adminHandler.HandleEnableMFA)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			utils.SendJSONError(w, "Not found", http.StatusNotFound)
			return
		}
		http.NotFound(w, r)
	})

	return r
}
