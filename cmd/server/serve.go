package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"smartpark/internal/api"
	"smartpark/internal/config"
	"smartpark/internal/entities"
	"smartpark/internal/events"
	"smartpark/internal/layout"
	"smartpark/internal/metrics"
	"smartpark/internal/repository"
	"smartpark/internal/service"
	"smartpark/internal/web"
)

const shutdownTimeout = 10 * time.Second

func serve(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	zones, err := loadZones(cfg.ZonesFile)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	m := metrics.New()

	lotOpts := []service.LotOption{
		service.WithInterval(cfg.SimulationInterval),
		service.WithLotLogger(logger),
		service.WithSimulationObserver(m),
	}
	if cfg.SimulationSeed != 0 {
		lotOpts = append(lotOpts, service.WithRand(rand.New(rand.NewPCG(cfg.SimulationSeed, cfg.SimulationSeed))))
	}
	lot := service.NewLotService(zones, lotOpts...)

	// Report archive
	var reportRepo *repository.ReportRepository
	var database *sql.DB
	if cfg.DatabaseURL != "" {
		database, err = openDatabase(gctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		reportRepo = repository.NewReportRepository(database)
		if err := reportRepo.EnsureSchema(gctx); err != nil {
			return err
		}
		logger.Info("Report archive enabled")
	} else {
		logger.Info("DATABASE_URL not set, analysis reports will not be archived")
	}

	analyzer := service.NewChatAnalyzer(cfg.Analysis, service.WithAnalyzerLogger(logger))
	analysisOpts := []service.AnalysisOption{
		service.WithAnalysisContext(gctx),
		service.WithAnalysisObserver(m),
		service.WithAnalysisLogger(logger),
	}
	if reportRepo != nil {
		analysisOpts = append(analysisOpts, service.WithReportArchiver(reportRepo))
	}
	analysis := service.NewAnalysisService(analyzer, analysisOpts...)

	authSvc := service.NewOperatorAuthService(
		repository.NewStaticOperatorRepository(cfg.Auth.OperatorUsername, cfg.Auth.OperatorPasswordHash),
		cfg.Auth.JWTSecret, cfg.Auth.TokenTTL,
	)
	if !authSvc.Enabled() {
		logger.Warn("JWT_SECRET not set, operator routes are open")
	}

	hub := api.NewHub(lot, analysis, cfg.CORSOrigins, m, logger)

	dashboard, err := web.DashboardTemplate()
	if err != nil {
		return fmt.Errorf("parse dashboard template: %w", err)
	}

	routerCfg := api.RouterConfig{
		Lot:       lot,
		Analysis:  analysis,
		Auth:      authSvc,
		Hub:       hub,
		Health:    &api.HealthHandler{Lot: lot, AnalysisEnabled: analyzer.Enabled()},
		Metrics:   m.Handler(),
		Static:    web.Static(),
		Dashboard: dashboard,
		Logger:    logger,
	}
	if reportRepo != nil {
		routerCfg.Reports = reportRepo
		routerCfg.Health.DB = database
	}

	if cfg.NATSURL != "" {
		conn, err := events.Connect(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer conn.Drain()
		relay := events.NewRelay(conn, cfg.NATSSubject, logger)
		lotEvents, cancelEvents := lot.Subscribe()
		defer cancelEvents()
		g.Go(func() error { return relay.Run(gctx, lotEvents) })
		logger.Info("Publishing lot events", "url", cfg.NATSURL, "subject", cfg.NATSSubject)
	}

	if cfg.ReportSchedule != "" {
		c, err := scheduleReports(gctx, cfg, lot, analysis, logger)
		if err != nil {
			return err
		}
		c.Start()
		g.Go(func() error {
			<-gctx.Done()
			<-c.Stop().Done()
			return nil
		})
	}

	g.Go(func() error { return lot.Run(gctx) })
	g.Go(func() error { return hub.Run(gctx) })

	updates, unsubscribe := lot.Subscribe()
	defer unsubscribe()
	m.ObserveSnapshot(lot.Snapshot())
	g.Go(func() error { return m.Follow(gctx, updates) })

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(api.NewRouter(routerCfg))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.CombinedLoggingHandler(os.Stdout, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("Server running", "port", cfg.Port, "zones", len(zones))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	analysis.Wait()
	logger.Info("Server stopped")
	return err
}

func loadZones(path string) ([]entities.ZoneConfig, error) {
	if path == "" {
		return layout.DefaultZones(), nil
	}
	zones, err := layout.LoadZones(path)
	if err != nil {
		return nil, fmt.Errorf("load zones: %w", err)
	}
	return zones, nil
}

func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	database, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		database.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return database, nil
}

// scheduleReports sets up the cron job that e-mails and texts a periodic
// analysis. Missing SendGrid or Twilio credentials disable that channel only.
func scheduleReports(ctx context.Context, cfg *config.Config, lot *service.LotService, analysis *service.AnalysisService, logger *slog.Logger) (*cron.Cron, error) {
	var email service.EmailSender
	if s, err := service.NewSendGridSender(cfg.Notify, logger); err == nil {
		email = s
	}
	var sms service.SMSSender
	if s, err := service.NewTwilioSender(cfg.Notify, logger); err == nil {
		sms = s
	}

	tmpl, err := web.ReportEmailTemplate()
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	notifier := service.NewReportNotifier(email, sms, service.NotifierConfig{
		EmailTo:  cfg.Notify.EmailTo,
		SMSTo:    cfg.Notify.SMSTo,
		Language: cfg.Analysis.Language,
		LotName:  cfg.Notify.SendGridFromName,
	}, tmpl, logger)

	job := service.NewReportJob(lot, analysis, notifier, cfg.Analysis.Timeout*2, logger)
	c := cron.New()
	if _, err := job.Schedule(ctx, c, cfg.ReportSchedule); err != nil {
		return nil, err
	}
	logger.Info("Report job scheduled", "schedule", cfg.ReportSchedule, "delivery", notifier.Enabled())
	return c, nil
}
