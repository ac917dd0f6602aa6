package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"smartpark/internal/entities"
	"smartpark/internal/layout"
	"smartpark/internal/stats"
	"smartpark/internal/utils"
)

const DefaultSimulationInterval = 1500 * time.Millisecond

var (
	ErrSpotNotFound   = errors.New("spot not found")
	ErrInvalidUpdate  = errors.New("invalid spot update")
	ErrStopped        = errors.New("lot service stopped")
	ErrAlreadyRunning = errors.New("lot service already running")
)

// TickerFunc starts a periodic ticker and returns its channel and stop func.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func timeTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// SimulationObserver is told about every processed simulation tick.
type SimulationObserver interface {
	ObserveTick(flips int)
}

// LotService owns the canonical spot list, the selection and the simulation
// flag. All writes go through Run's goroutine, one command at a time;
// readers get immutable snapshots.
type LotService struct {
	zones     []entities.ZoneConfig
	interval  time.Duration
	rng       *rand.Rand
	newTicker TickerFunc
	now       func() time.Time
	logger    *slog.Logger
	observer  SimulationObserver

	initial []entities.ParkingSpot
	cmds    chan command
	done    chan struct{}
	running atomic.Bool

	snap atomic.Pointer[entities.Snapshot]

	subMu sync.Mutex
	subs  map[string]chan *entities.Snapshot
}

type command struct {
	apply func(st *lotState) (changed bool, err error)
	reply chan error
}

// lotState is only touched from Run's goroutine.
type lotState struct {
	spots      []entities.ParkingSpot
	selected   string
	simulating bool
	version    uint64

	tickC      <-chan time.Time
	stopTicker func()
}

type LotOption func(*LotService)

func WithInterval(d time.Duration) LotOption {
	return func(s *LotService) {
		s.interval = d
	}
}

// WithRand sets the random source used for initial occupancy and ticks.
func WithRand(r *rand.Rand) LotOption {
	return func(s *LotService) {
		s.rng = r
	}
}

func WithTicker(f TickerFunc) LotOption {
	return func(s *LotService) {
		s.newTicker = f
	}
}

func WithClock(now func() time.Time) LotOption {
	return func(s *LotService) {
		s.now = now
	}
}

func WithLotLogger(logger *slog.Logger) LotOption {
	return func(s *LotService) {
		s.logger = logger
	}
}

func WithSimulationObserver(o SimulationObserver) LotOption {
	return func(s *LotService) {
		s.observer = o
	}
}

// NewLotService generates the initial spots from zones. The returned service
// serves snapshots immediately; commands are processed once Run is called.
func NewLotService(zones []entities.ZoneConfig, opts ...LotOption) *LotService {
	s := &LotService{
		zones:     slices.Clone(zones),
		interval:  DefaultSimulationInterval,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newTicker: timeTicker,
		now:       time.Now,
		logger:    slog.Default(),
		cmds:      make(chan command),
		done:      make(chan struct{}),
		subs:      make(map[string]chan *entities.Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initial = layout.Generate(s.zones, s.rng)
	s.snap.Store(s.buildSnapshot(&lotState{spots: s.initial}))
	return s
}

// Zones returns the static zone configuration.
func (s *LotService) Zones() []entities.ZoneConfig {
	return slices.Clone(s.zones)
}

// Snapshot returns the latest published state. Callers must not modify it.
func (s *LotService) Snapshot() *entities.Snapshot {
	return s.snap.Load()
}

// Done is closed when Run returns.
func (s *LotService) Done() <-chan struct{} {
	return s.done
}

// Run processes commands and simulation ticks until ctx is cancelled.
// Timer ticks and commands share one select, so at most one state
// transition is applied at a time.
func (s *LotService) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(s.done)

	st := &lotState{spots: s.initial}
	defer s.stopSimulation(st)

	s.logger.Info("Lot coordinator started", "zones", len(s.zones), "spots", len(st.spots), "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Lot coordinator stopping")
			return nil

		case cmd := <-s.cmds:
			changed, err := cmd.apply(st)
			if changed {
				s.publish(st)
			}
			cmd.reply <- err

		case <-st.tickC:
			if flips := s.tick(st); flips > 0 {
				s.publish(st)
			}
		}
	}
}

func (s *LotService) do(ctx context.Context, fn func(st *lotState) (bool, error)) error {
	cmd := command{apply: fn, reply: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-s.done:
		return ErrStopped
	}
}

// tick flips between one and three random spots, never the selected one,
// and swaps in the result as one new spot list.
func (s *LotService) tick(st *lotState) int {
	if len(st.spots) == 0 {
		return 0
	}

	next := slices.Clone(st.spots)
	attempts := s.rng.IntN(3) + 1
	flips := 0
	for i := 0; i < attempts; i++ {
		idx := s.rng.IntN(len(next))
		if next[idx].ID == st.selected {
			continue
		}
		next[idx].IsOccupied = !next[idx].IsOccupied
		flips++
	}

	if s.observer != nil {
		s.observer.ObserveTick(flips)
	}
	if flips > 0 {
		st.spots = next
	}
	return flips
}

func (s *LotService) startSimulation(st *lotState) {
	if st.simulating {
		return
	}
	st.tickC, st.stopTicker = s.newTicker(s.interval)
	st.simulating = true
	s.logger.Info("Simulation started", "interval", s.interval)
}

// stopSimulation drops the tick channel, so no tick is handled after it returns.
func (s *LotService) stopSimulation(st *lotState) {
	if !st.simulating {
		return
	}
	st.stopTicker()
	st.tickC = nil
	st.stopTicker = nil
	st.simulating = false
	s.logger.Info("Simulation stopped")
}

// ToggleSimulation flips between idle and running and returns the new state.
func (s *LotService) ToggleSimulation(ctx context.Context) (bool, error) {
	var running bool
	err := s.do(ctx, func(st *lotState) (bool, error) {
		if st.simulating {
			s.stopSimulation(st)
		} else {
			s.startSimulation(st)
		}
		running = st.simulating
		return true, nil
	})
	return running, err
}

func (s *LotService) SetSimulation(ctx context.Context, on bool) error {
	return s.do(ctx, func(st *lotState) (bool, error) {
		if st.simulating == on {
			return false, nil
		}
		if on {
			s.startSimulation(st)
		} else {
			s.stopSimulation(st)
		}
		return true, nil
	})
}

// Reset replaces every spot with a free one generated from the same zones.
// A selection that no longer resolves is cleared.
func (s *LotService) Reset(ctx context.Context) error {
	return s.do(ctx, func(st *lotState) (bool, error) {
		st.spots = layout.GenerateReset(s.zones)
		if st.selected != "" && indexOf(st.spots, st.selected) < 0 {
			st.selected = ""
		}
		s.logger.Info("Lot reset", "spots", len(st.spots))
		return true, nil
	})
}

// Select marks the spot protected from the simulation and open in the editor.
func (s *LotService) Select(ctx context.Context, id string) error {
	return s.do(ctx, func(st *lotState) (bool, error) {
		if indexOf(st.spots, id) < 0 {
			return false, fmt.Errorf("%w: %s", ErrSpotNotFound, id)
		}
		if st.selected == id {
			return false, nil
		}
		st.selected = id
		return true, nil
	})
}

func (s *LotService) ClearSelection(ctx context.Context) error {
	return s.do(ctx, func(st *lotState) (bool, error) {
		if st.selected == "" {
			return false, nil
		}
		st.selected = ""
		return true, nil
	})
}

// UpdateSpot merges a partial update into the spot with the given id and
// returns the updated spot. Other spots are left untouched.
func (s *LotService) UpdateSpot(ctx context.Context, id string, upd entities.SpotUpdate) (entities.ParkingSpot, error) {
	upd, err := normalizeUpdate(upd)
	if err != nil {
		return entities.ParkingSpot{}, err
	}

	var updated entities.ParkingSpot
	err = s.do(ctx, func(st *lotState) (bool, error) {
		idx := indexOf(st.spots, id)
		if idx < 0 {
			return false, fmt.Errorf("%w: %s", ErrSpotNotFound, id)
		}
		next := slices.Clone(st.spots)
		next[idx] = upd.Apply(next[idx])
		updated = next[idx]
		if next[idx] == st.spots[idx] {
			return false, nil
		}
		st.spots = next
		return true, nil
	})
	return updated, err
}

func normalizeUpdate(upd entities.SpotUpdate) (entities.SpotUpdate, error) {
	if upd.Empty() {
		return upd, fmt.Errorf("%w: no fields to update", ErrInvalidUpdate)
	}
	if upd.Type != nil {
		t, err := utils.ParseSpotType(string(*upd.Type))
		if err != nil {
			return upd, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
		}
		upd.Type = &t
	}
	for _, c := range []**string{&upd.CustomColorFree, &upd.CustomColorOccupied} {
		if *c == nil {
			continue
		}
		norm, err := utils.NormalizeColor(**c)
		if err != nil {
			return upd, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
		}
		*c = &norm
	}
	return upd, nil
}

// Subscribe returns a channel receiving every published snapshot. A slow
// reader only sees the latest one. Call cancel to unsubscribe.
func (s *LotService) Subscribe() (<-chan *entities.Snapshot, func()) {
	id := uuid.New().String()
	ch := make(chan *entities.Snapshot, 1)

	s.subMu.Lock()
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *LotService) publish(st *lotState) {
	st.version++
	snap := s.buildSnapshot(st)
	s.snap.Store(snap)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// buildSnapshot shares st.spots: every mutation installs a fresh slice, so a
// published slice is never written again.
func (s *LotService) buildSnapshot(st *lotState) *entities.Snapshot {
	return &entities.Snapshot{
		Version:    st.version,
		Spots:      st.spots,
		SelectedID: st.selected,
		Simulating: st.simulating,
		Stats:      stats.Aggregate(st.spots),
		UpdatedAt:  s.now(),
	}
}

func indexOf(spots []entities.ParkingSpot, id string) int {
	for i := range spots {
		if spots[i].ID == id {
			return i
		}
	}
	return -1
}
