package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"smartpark/internal/db"
	"smartpark/internal/entities"
	apierrors "smartpark/internal/errors"
	"smartpark/internal/repository"
)

type ReportStore interface {
	ListReports(ctx context.Context, limit int) ([]db.AnalysisReport, error)
	CountReports(ctx context.Context) (int64, error)
}

// ReportHandler lists archived analyses. Store is nil when no database is
// configured.
type ReportHandler struct {
	Store  ReportStore
	logger *slog.Logger
}

func NewReportHandler(store ReportStore, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{Store: store, logger: logger}
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, apierrors.ErrUnavailable("Report archive is not configured"))
		return
	}

	limit := repository.DefaultReportLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, apierrors.ErrBadRequest("Invalid limit"))
			return
		}
		limit = repository.ClampLimit(n)
	}

	reports, err := h.Store.ListReports(r.Context(), limit)
	if err != nil {
		h.logger.Error("Listing reports failed", "error", err)
		writeError(w, apierrors.ErrInternal("Database error"))
		return
	}
	total, err := h.Store.CountReports(r.Context())
	if err != nil {
		h.logger.Error("Counting reports failed", "error", err)
		writeError(w, apierrors.ErrInternal("Database error"))
		return
	}

	views := make([]entities.AnalysisReportView, 0, len(reports))
	for _, rep := range reports {
		views = append(views, entities.AnalysisReportView{
			ID:          rep.ID,
			RequestID:   rep.RequestID,
			Total:       rep.Total,
			Occupied:    rep.Occupied,
			Available:   rep.Available,
			Analysis:    rep.Analysis,
			Trigger:     rep.Trigger,
			GeneratedAt: rep.GeneratedAt,
		})
	}
	writeJSON(w, http.StatusOK, entities.ReportsList{Total: total, Limit: limit, Reports: views})
}
