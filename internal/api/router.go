package api

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"smartpark/internal/auth"
	"smartpark/internal/service"
)

type RouterConfig struct {
	Lot       *service.LotService
	Analysis  *service.AnalysisService
	Auth      service.OperatorAuthService
	Reports   ReportStore
	Hub       *Hub
	Health    *HealthHandler
	Metrics   http.Handler
	Static    http.Handler
	Dashboard *template.Template
	Logger    *slog.Logger
}

// NewRouter wires every route. Mutating lot routes sit behind the operator
// middleware; read views stay public.
func NewRouter(cfg RouterConfig) *mux.Router {
	lotHandler := NewLotHandler(cfg.Lot, cfg.Analysis)
	analysisHandler := NewAnalysisHandler(cfg.Lot, cfg.Analysis)
	authHandler := NewOperatorAuthHandler(cfg.Auth, cfg.Logger)
	reportHandler := NewReportHandler(cfg.Reports, cfg.Logger)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/state", lotHandler.GetState).Methods("GET")
	r.HandleFunc("/api/stats", lotHandler.GetStats).Methods("GET")
	r.HandleFunc("/api/zones", lotHandler.GetZones).Methods("GET")
	r.HandleFunc("/api/map", lotHandler.GetMap).Methods("GET")
	r.HandleFunc("/api/panel", lotHandler.GetPanel).Methods("GET")
	r.HandleFunc("/api/dashboard", lotHandler.GetDashboard).Methods("GET")
	r.HandleFunc("/api/spots/{id}", lotHandler.GetSpot).Methods("GET")
	r.HandleFunc("/api/analysis", analysisHandler.Get).Methods("GET")
	r.HandleFunc("/api/login", authHandler.Login).Methods("POST")

	// Operator endpoints
	op := r.PathPrefix("/api").Subrouter()
	op.Use(auth.OperatorMiddleware(cfg.Auth))
	op.HandleFunc("/simulation/toggle", lotHandler.ToggleSimulation).Methods("POST")
	op.HandleFunc("/simulation", lotHandler.SetSimulation).Methods("PUT")
	op.HandleFunc("/reset", lotHandler.Reset).Methods("POST")
	op.HandleFunc("/spots/{id}", lotHandler.UpdateSpot).Methods("PATCH")
	op.HandleFunc("/selection", lotHandler.Select).Methods("POST")
	op.HandleFunc("/selection", lotHandler.ClearSelection).Methods("DELETE")
	op.HandleFunc("/analysis", analysisHandler.Trigger).Methods("POST")
	op.HandleFunc("/reports", reportHandler.List).Methods("GET")

	if cfg.Health != nil {
		r.Handle("/healthz", cfg.Health).Methods("GET")
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods("GET")
	}
	if cfg.Hub != nil {
		r.HandleFunc("/ws", cfg.Hub.ServeWS)
	}
	if cfg.Static != nil {
		r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", cfg.Static))
	}
	if cfg.Dashboard != nil {
		r.Handle("/", NewDashboardHandler(cfg.Lot, cfg.Analysis, cfg.Dashboard, cfg.Logger)).Methods("GET")
	}
	return r
}
