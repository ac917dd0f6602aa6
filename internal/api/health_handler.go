package api

import (
	"context"
	"net/http"
	"time"

	"smartpark/internal/service"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	Lot             *service.LotService
	DB              Pinger
	AnalysisEnabled bool
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := h.Lot.Snapshot()
	resp := HealthResponse{
		Status:     "ok",
		Version:    snap.Version,
		Simulating: snap.Simulating,
		Analysis:   h.AnalysisEnabled,
		Database:   "disabled",
	}

	status := http.StatusOK
	select {
	case <-h.Lot.Done():
		resp.Status = "stopping"
		status = http.StatusServiceUnavailable
	default:
	}

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			resp.Database = "unreachable"
			resp.Status = "degraded"
		} else {
			resp.Database = "ok"
		}
	}
	writeJSON(w, status, resp)
}
