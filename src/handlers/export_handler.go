// src/handlers/export_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/username/tradeops/backend/src/export"
	"github.com/username/tradeops/backend/src/listing"
	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/services"
)

const exportErrorsHeader = "X-Export-Errors"

// ExportHandler streams filtered, sorted collections as downloads. Each
// admin runs at most one export at a time.
type ExportHandler struct {
	records  *services.RecordService
	exporter *export.Exporter
	guard    *export.Guard
	now      func() time.Time
}

func NewExportHandler(records *services.RecordService, exporter *export.Exporter, guard *export.Guard) *ExportHandler {
	return &ExportHandler{records: records, exporter: exporter, guard: guard, now: time.Now}
}

// exportSet resolves the entity, filename and the filtered and ordered records.
func (h *ExportHandler) exportSet(r *http.Request) ([]listing.Record, *listing.View, string, error) {
	entity := chi.URLParam(r, "entity")
	view, err := h.records.Catalog().View(entity)
	if err != nil {
		return nil, nil, "", err
	}
	q, err := parseQuery(r.URL.Query(), view)
	if err != nil {
		return nil, nil, "", err
	}
	filename := strings.TrimSpace(r.URL.Query().Get("filename"))
	if filename == "" {
		filename = fmt.Sprintf("%s_%s", entity, h.now().Format("2006-01-02"))
	}
	set, view, err := h.records.ExportSet(r.Context(), entity, q.Filter, q.Sort)
	if err != nil {
		return nil, nil, "", err
	}
	return set, view, filename, nil
}

func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		raw = string(export.CSV)
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		sendServiceError(w, r, err, "Export")
		return
	}

	release, err := h.guard.Begin(actor(r), format)
	if err != nil {
		sendServiceError(w, r, err, "Export")
		return
	}
	defer release()

	set, view, filename, err := h.exportSet(r)
	if err != nil {
		sendServiceError(w, r, err, "Export")
		return
	}
	file, err := h.exporter.Export(set, view.ColumnNames(), filename, format)
	if err != nil {
		sendServiceError(w, r, err, "Export")
		return
	}
	logger.FromContext(r.Context()).Info("Export generated", "entity", view.Name, "format", format, "records", len(set), "bytes", len(file.Data))
	writeFile(w, file)
}

// HandleExportBundle zips several formats at once. Formats that fail are
// listed in X-Export-Errors while the rest are still delivered.
func (h *ExportHandler) HandleExportBundle(w http.ResponseWriter, r *http.Request) {
	formats, err := parseFormats(r.URL.Query().Get("formats"))
	if err != nil {
		sendServiceError(w, r, err, "Export bundle")
		return
	}

	release, err := h.guard.Begin(actor(r), "zip")
	if err != nil {
		sendServiceError(w, r, err, "Export bundle")
		return
	}
	defer release()

	set, view, filename, err := h.exportSet(r)
	if err != nil {
		sendServiceError(w, r, err, "Export bundle")
		return
	}
	res, err := h.exporter.Bundle(set, view.ColumnNames(), filename, formats)
	if res != nil && len(res.Failed) > 0 {
		w.Header().Set(exportErrorsHeader, describeFailures(res.Failed))
	}
	if err != nil {
		sendServiceError(w, r, err, "Export bundle")
		return
	}
	logger.FromContext(r.Context()).Info("Export bundle generated", "entity", view.Name, "formats", len(formats), "failed", len(res.Failed))
	writeFile(w, res.File)
}

// parseFormats reads a comma separated list; empty means every format.
func parseFormats(raw string) ([]export.Format, error) {
	if strings.TrimSpace(raw) == "" {
		return append([]export.Format(nil), export.Formats...), nil
	}
	seen := make(map[export.Format]bool)
	var out []export.Format
	for _, part := range strings.Split(raw, ",") {
		f, err := export.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

func describeFailures(failed map[export.Format]error) string {
	parts := make([]string, 0, len(failed))
	for f, err := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.ReplaceAll(err.Error(), "\n", " ")))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func writeFile(w http.ResponseWriter, file *export.File) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		logger.L.Warn("Failed to write export download", "file", file.Name, "error", err)
	}
}
