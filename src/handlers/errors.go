package handlers

import (
	"errors"
	"net/http"

	"github.com/username/tradeops/backend/src/catalog"
	"github.com/username/tradeops/backend/src/export"
	"github.com/username/tradeops/backend/src/listing"
	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/security/validation"
	"github.com/username/tradeops/backend/src/services"
	"github.com/username/tradeops/backend/src/store"
	"github.com/username/tradeops/backend/src/utils"
)

// statusFor maps a service error to the HTTP status reported to the client.
func statusFor(err error) int {
	var formatErr *export.FormatError
	switch {
	case errors.Is(err, catalog.ErrUnknownEntity), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, export.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, export.ErrExportInProgress),
		errors.Is(err, store.ErrDuplicateID),
		errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict
	case errors.As(err, &formatErr):
		return http.StatusInternalServerError
	case errors.Is(err, validation.ErrValidationFailed),
		errors.Is(err, listing.ErrUnknownField),
		errors.Is(err, listing.ErrInvalidPageSize),
		errors.Is(err, services.ErrImmutableField),
		errors.Is(err, services.ErrImportFailed),
		errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrMFARequired),
		errors.Is(err, services.ErrInvalidMFACode):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// sendServiceError logs err and writes its mapped status. Internal errors
// are not echoed to the client, except export failures which name the format.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := statusFor(err)
	ctxLogger := logger.FromContext(r.Context())
	msg := err.Error()

	var formatErr *export.FormatError
	switch {
	case errors.Is(err, export.ErrNoData):
		msg = export.ErrNoData.Error()
	case errors.As(err, &formatErr):
		ctxLogger.Error(action+" failed", "format", formatErr.Format, "error", formatErr.Err)
	case status == http.StatusInternalServerError:
		ctxLogger.Error(action+" failed", "error", err)
		msg = "Internal server error"
	default:
		ctxLogger.Info(action+" rejected", "status", status, "error", err)
	}
	utils.SendJSONError(w, msg, status)
}
