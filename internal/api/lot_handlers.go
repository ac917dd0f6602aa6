package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	apierrors "smartpark/internal/errors"
	"smartpark/internal/render"
	"smartpark/internal/service"
)

type LotHandler struct {
	Lot      *service.LotService
	Analysis *service.AnalysisService
}

func NewLotHandler(lot *service.LotService, analysis *service.AnalysisService) *LotHandler {
	return &LotHandler{Lot: lot, Analysis: analysis}
}

func (h *LotHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Lot.Snapshot())
}

func (h *LotHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Lot.Snapshot().Stats)
}

func (h *LotHandler) GetZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Lot.Zones())
}

func (h *LotHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	snap := h.Lot.Snapshot()
	writeJSON(w, http.StatusOK, render.BuildMap(h.Lot.Zones(), snap.Spots, snap.SelectedID))
}

func (h *LotHandler) GetPanel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, render.BuildPanel(h.Lot.Snapshot(), h.Analysis.State()))
}

func (h *LotHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, render.BuildDashboard(h.Lot.Zones(), h.Lot.Snapshot(), h.Analysis.State()))
}

func (h *LotHandler) GetSpot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap := h.Lot.Snapshot()
	for _, s := range snap.Spots {
		if s.ID == id {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeError(w, apierrors.ErrNotFound("spot not found: "+id))
}

func (h *LotHandler) ToggleSimulation(w http.ResponseWriter, r *http.Request) {
	running, err := h.Lot.ToggleSimulation(r.Context())
	if err != nil {
		writeError(w, serviceError(err))
		return
	}
	writeJSON(w, http.StatusOK, SimulationResponse{Running: running})
}

func (h *LotHandler) SetSimulation(w http.ResponseWriter, r *http.Request) {
	var req SetSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Running == nil {
		writeError(w, apierrors.ErrBadRequest("Invalid request: running is required"))
		return
	}
	if err := h.Lot.SetSimulation(r.Context(), *req.Running); err != nil {
		writeError(w, serviceError(err))
		return
	}
	writeJSON(w, http.StatusOK, SimulationResponse{Running: h.Lot.Snapshot().Simulating})
}

func (h *LotHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Lot.Reset(r.Context()); err != nil {
		writeError(w, serviceError(err))
		return
	}
	writeJSON(w, http.StatusOK, h.Lot.Snapshot())
}

func (h *LotHandler) UpdateSpot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req UpdateSpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierrors.ErrBadRequest("Invalid request body"))
		return
	}
	spot, err := h.Lot.UpdateSpot(r.Context(), id, req)
	if err != nil {
		writeError(w, serviceError(err))
		return
	}
	writeJSON(w, http.StatusOK, spot)
}

func (h *LotHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		writeError(w, apierrors.ErrBadRequest("Invalid request: id is required"))
		return
	}
	if err := h.Lot.Select(r.Context(), req.ID); err != nil {
		writeError(w, serviceError(err))
		return
	}
	writeJSON(w, http.StatusOK, render.BuildPanel(h.Lot.Snapshot(), h.Analysis.State()))
}

func (h *LotHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	if err := h.Lot.ClearSelection(r.Context()); err != nil {
		writeError(w, serviceError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
