package api

import (
	"net/http"

	"smartpark/internal/service"
)

type AnalysisHandler struct {
	Lot      *service.LotService
	Analysis *service.AnalysisService
}

func NewAnalysisHandler(lot *service.LotService, analysis *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{Lot: lot, Analysis: analysis}
}

// Trigger starts an analysis of the current stats. A request while one is
// already running gets the running state back with 200 instead of 202.
func (h *AnalysisHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	state, started := h.Analysis.Trigger(h.Lot.Snapshot().Stats)
	if !started {
		writeJSON(w, http.StatusOK, state)
		return
	}
	writeJSON(w, http.StatusAccepted, state)
}

func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Analysis.State())
}
