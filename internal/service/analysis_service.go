package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartpark/internal/db"
	"smartpark/internal/entities"
)

const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// ReportArchiver persists finished analyses.
type ReportArchiver interface {
	SaveReport(ctx context.Context, report *db.AnalysisReport) (int64, error)
}

// AnalysisObserver is told how each analysis request ended.
type AnalysisObserver interface {
	ObserveAnalysis(trigger string, d time.Duration)
}

// AnalysisService runs at most one analysis at a time and keeps the last
// result for display. A trigger while a request is in flight is ignored.
type AnalysisService struct {
	analyzer Analyzer
	archive  ReportArchiver
	observer AnalysisObserver
	logger   *slog.Logger
	now      func() time.Time

	ctx context.Context
	wg  sync.WaitGroup

	mu    sync.Mutex
	state entities.AnalysisState
	subs  []func(entities.AnalysisState)
}

type AnalysisOption func(*AnalysisService)

// WithReportArchiver stores every completed analysis.
func WithReportArchiver(a ReportArchiver) AnalysisOption {
	return func(s *AnalysisService) {
		s.archive = a
	}
}

func WithAnalysisObserver(o AnalysisObserver) AnalysisOption {
	return func(s *AnalysisService) {
		s.observer = o
	}
}

func WithAnalysisLogger(logger *slog.Logger) AnalysisOption {
	return func(s *AnalysisService) {
		s.logger = logger
	}
}

// WithAnalysisContext bounds background requests to ctx.
func WithAnalysisContext(ctx context.Context) AnalysisOption {
	return func(s *AnalysisService) {
		s.ctx = ctx
	}
}

func WithAnalysisClock(now func() time.Time) AnalysisOption {
	return func(s *AnalysisService) {
		s.now = now
	}
}

func NewAnalysisService(analyzer Analyzer, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{
		analyzer: analyzer,
		logger:   slog.Default(),
		now:      time.Now,
		ctx:      context.Background(),
		state:    entities.AnalysisState{Status: entities.AnalysisIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current analysis state.
func (s *AnalysisService) State() entities.AnalysisState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange registers fn to be called after every state transition.
func (s *AnalysisService) OnChange(fn func(entities.AnalysisState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Trigger starts a background analysis of st. It returns the resulting state
// and false when a request was already in flight.
func (s *AnalysisService) Trigger(st entities.ParkingStats) (entities.AnalysisState, bool) {
	s.mu.Lock()
	if s.state.Status == entities.AnalysisInFlight {
		state := s.state
		s.mu.Unlock()
		s.logger.Debug("Analysis already in flight, trigger ignored", "request_id", state.RequestID)
		return state, false
	}

	started := s.now()
	s.state = entities.AnalysisState{
		Status:    entities.AnalysisInFlight,
		RequestID: uuid.New().String(),
		StartedAt: &started,
	}
	state := s.state
	subs := s.subs
	s.wg.Add(1)
	s.mu.Unlock()

	notify(subs, state)

	go func() {
		defer s.wg.Done()
		s.run(state.RequestID, st, TriggerManual)
	}()
	return state, true
}

// Analyze runs a synchronous analysis for scheduled reports. It does not
// touch the displayed state.
func (s *AnalysisService) Analyze(ctx context.Context, st entities.ParkingStats, trigger string) (*db.AnalysisReport, error) {
	requestID := uuid.New().String()
	started := s.now()
	text := s.analyzer.Analyze(ctx, st)
	if s.observer != nil {
		s.observer.ObserveAnalysis(trigger, s.now().Sub(started))
	}

	report := newReport(requestID, st, text, trigger, s.now())
	if s.archive != nil {
		id, err := s.archive.SaveReport(ctx, report)
		if err != nil {
			return report, err
		}
		report.ID = id
	}
	return report, nil
}

// Wait blocks until no background request is running.
func (s *AnalysisService) Wait() {
	s.wg.Wait()
}

func (s *AnalysisService) run(requestID string, st entities.ParkingStats, trigger string) {
	started := s.now()
	text := s.analyzer.Analyze(s.ctx, st)
	completed := s.now()
	if s.observer != nil {
		s.observer.ObserveAnalysis(trigger, completed.Sub(started))
	}

	s.mu.Lock()
	s.state.Status = entities.AnalysisDisplayed
	s.state.Result = text
	s.state.CompletedAt = &completed
	state := s.state
	subs := s.subs
	s.mu.Unlock()

	s.logger.Info("Analysis completed", "request_id", requestID, "duration", completed.Sub(started))
	notify(subs, state)

	if s.archive == nil {
		return
	}
	if _, err := s.archive.SaveReport(s.ctx, newReport(requestID, st, text, trigger, completed)); err != nil {
		s.logger.Error("Failed to archive analysis", "request_id", requestID, "error", err)
	}
}

func notify(subs []func(entities.AnalysisState), state entities.AnalysisState) {
	for _, fn := range subs {
		fn(state)
	}
}

func newReport(requestID string, st entities.ParkingStats, text, trigger string, at time.Time) *db.AnalysisReport {
	byType := make([]int64, len(entities.SpotTypes))
	for i, t := range entities.SpotTypes {
		byType[i] = int64(st.Breakdown[t].Available)
	}
	return &db.AnalysisReport{
		RequestID:       requestID,
		Total:           st.Total,
		Occupied:        st.Occupied,
		Available:       st.Available,
		AvailableByType: byType,
		Analysis:        text,
		Trigger:         trigger,
		GeneratedAt:     at,
	}
}
