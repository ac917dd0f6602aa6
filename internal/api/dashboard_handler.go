package api

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"smartpark/internal/render"
	"smartpark/internal/service"
)

// DashboardHandler renders the first frame of the dashboard server-side; the
// page script keeps it current over the websocket.
type DashboardHandler struct {
	Lot      *service.LotService
	Analysis *service.AnalysisService
	tmpl     *template.Template
	logger   *slog.Logger
}

func NewDashboardHandler(lot *service.LotService, analysis *service.AnalysisService, tmpl *template.Template, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{Lot: lot, Analysis: analysis, tmpl: tmpl, logger: logger}
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	view := render.BuildDashboard(h.Lot.Zones(), h.Lot.Snapshot(), h.Analysis.State())

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, view); err != nil {
		h.logger.Error("Rendering dashboard failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
