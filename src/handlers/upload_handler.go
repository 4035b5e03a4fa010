// src/handlers/upload_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/security/validation"
	"github.com/username/tradeops/backend/src/services"
	"github.com/username/tradeops/backend/src/utils"
)

// UploadHandler accepts CSV files for bulk record import.
type UploadHandler struct {
	importer      *services.ImportService
	maxUploadSize int64
}

func NewUploadHandler(importer *services.ImportService, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{importer: importer, maxUploadSize: maxUploadSize}
}

func (h *UploadHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	if !canWrite(w, r, entity) {
		return
	}
	ctxLogger := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1024)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadSize)
		utils.SendJSONError(w, fmt.Sprintf("Failed to read upload or file too large (max %d MB)", h.maxUploadSize/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadSize {
		ctxLogger.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", h.maxUploadSize)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", h.maxUploadSize/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	detected, err := validation.ValidateFileContent(file)
	if err != nil {
		ctxLogger.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctxLogger.Info("Processing import", "entity", entity, "filename", fileHeader.Filename, "detectedType", detected)

	result, err := h.importer.ImportCSV(r.Context(), entity, actor(r), file)
	if err != nil {
		sendServiceError(w, r, err, "Import")
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}
