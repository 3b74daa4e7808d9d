package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Dune005/syfte/internal/ctxkeys"
	"github.com/Dune005/syfte/internal/render"
	"github.com/Dune005/syfte/internal/service"
)

type ExportHandler struct {
	exportService *service.ExportService
}

func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// attachment writes a buffered export so a failure halfway through still
// produces a clean error response.
func attachment(w http.ResponseWriter, contentType, filename string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := body.WriteTo(w); err != nil {
		slog.Error("failed to write export", "error", err, "filename", filename)
	}
}

func (h *ExportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := h.exportService.WriteCSV(&buf, ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", h.exportService.Filename("savings", "csv"), &buf)
}

func (h *ExportHandler) PDF(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := h.exportService.WritePDF(&buf, ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	attachment(w, "application/pdf", h.exportService.Filename("report", "pdf"), &buf)
}

func (h *ExportHandler) JSON(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.exportService.Bundle(ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.exportService.Filename("export", "json")))
	render.JSON(w, http.StatusOK, bundle)
}
