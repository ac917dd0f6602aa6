package service

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartpark/internal/entities"
	"smartpark/internal/layout"
)

type manualTicker struct {
	ch      chan time.Time
	started atomic.Int32
	stopped atomic.Int32
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) start(time.Duration) (<-chan time.Time, func()) {
	m.started.Add(1)
	return m.ch, func() { m.stopped.Add(1) }
}

// fire delivers one tick and waits until the coordinator has processed it.
func (m *manualTicker) fire(t *testing.T, svc *LotService) {
	t.Helper()
	select {
	case m.ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("tick not accepted")
	}
	require.NoError(t, svc.SetSimulation(context.Background(), true))
}

type tickCounter struct{ ticks, flips atomic.Int64 }

func (c *tickCounter) ObserveTick(flips int) {
	c.ticks.Add(1)
	c.flips.Add(int64(flips))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startLot(t *testing.T, zones []entities.ZoneConfig, opts ...LotOption) *LotService {
	t.Helper()
	opts = append([]LotOption{
		WithRand(rand.New(rand.NewPCG(3, 5))),
		WithLotLogger(quietLogger()),
	}, opts...)
	svc := NewLotService(zones, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-svc.Done()
	})
	return svc
}

func smallZones() []entities.ZoneConfig {
	return []entities.ZoneConfig{
		{ID: "A", Rows: 1, Cols: 3, StartNumber: 1, SpotType: entities.SpotStandard},
		{ID: "B", Rows: 1, Cols: 2, StartNumber: 4, SpotType: entities.SpotDisabled},
	}
}

func TestLotService_InitialSnapshot(t *testing.T) {
	svc := NewLotService(layout.DefaultZones(), WithRand(rand.New(rand.NewPCG(1, 1))))

	snap := svc.Snapshot()
	require.NotNil(t, snap)
	assert.Len(t, snap.Spots, 62)
	assert.False(t, snap.Simulating)
	assert.Empty(t, snap.SelectedID)
	assert.Equal(t, 62, snap.Stats.Total)
	assert.Equal(t, snap.Stats.Total, snap.Stats.Occupied+snap.Stats.Available)
}

func TestLotService_RunTwice(t *testing.T) {
	svc := startLot(t, smallZones())
	require.NoError(t, svc.Reset(context.Background()))
	assert.ErrorIs(t, svc.Run(context.Background()), ErrAlreadyRunning)
}

func TestLotService_StoppedRejectsCommands(t *testing.T) {
	svc := NewLotService(smallZones(), WithLotLogger(quietLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)
	cancel()
	<-svc.Done()

	assert.ErrorIs(t, svc.Reset(context.Background()), ErrStopped)
}

func TestLotService_ToggleSimulation(t *testing.T) {
	ticker := newManualTicker()
	svc := startLot(t, smallZones(), WithTicker(ticker.start))
	ctx := context.Background()

	on, err := svc.ToggleSimulation(ctx)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, svc.Snapshot().Simulating)
	assert.Equal(t, int32(1), ticker.started.Load())

	off, err := svc.ToggleSimulation(ctx)
	require.NoError(t, err)
	assert.False(t, off)
	assert.False(t, svc.Snapshot().Simulating)
	assert.Equal(t, int32(1), ticker.stopped.Load())
}

func TestLotService_TickFlipsSpots(t *testing.T) {
	ticker := newManualTicker()
	counter := &tickCounter{}
	svc := startLot(t, smallZones(), WithTicker(ticker.start), WithSimulationObserver(counter))
	ctx := context.Background()
	require.NoError(t, svc.Reset(ctx))
	require.NoError(t, svc.SetSimulation(ctx, true))

	before := svc.Snapshot()
	ticker.fire(t, svc)
	after := svc.Snapshot()

	assert.Equal(t, int64(1), counter.ticks.Load())
	flips := counter.flips.Load()
	assert.GreaterOrEqual(t, flips, int64(1))
	assert.LessOrEqual(t, flips, int64(3))
	assert.Greater(t, after.Version, before.Version)

	// The old snapshot is untouched by the tick.
	for _, s := range before.Spots {
		assert.False(t, s.IsOccupied)
	}
}

func TestLotService_TickNeverTouchesSelected(t *testing.T) {
	ticker := newManualTicker()
	svc := startLot(t, smallZones(), WithTicker(ticker.start))
	ctx := context.Background()
	require.NoError(t, svc.Reset(ctx))
	require.NoError(t, svc.Select(ctx, "A-1"))
	require.NoError(t, svc.SetSimulation(ctx, true))

	changedOthers := false
	for i := 0; i < 200; i++ {
		ticker.fire(t, svc)
		snap := svc.Snapshot()
		spot := snap.SelectedSpot()
		require.NotNil(t, spot)
		assert.False(t, spot.IsOccupied, "selected spot flipped on tick %d", i)
		if snap.Stats.Occupied > 0 {
			changedOthers = true
		}
	}
	assert.True(t, changedOthers)
}

func TestLotService_SingleSelectedSpotNeverChanges(t *testing.T) {
	ticker := newManualTicker()
	counter := &tickCounter{}
	zones := []entities.ZoneConfig{{ID: "S", Rows: 1, Cols: 1, SpotType: entities.SpotEV}}
	svc := startLot(t, zones, WithTicker(ticker.start), WithSimulationObserver(counter))
	ctx := context.Background()
	require.NoError(t, svc.Reset(ctx))
	require.NoError(t, svc.Select(ctx, "S-0"))
	require.NoError(t, svc.SetSimulation(ctx, true))
	version := svc.Snapshot().Version

	for i := 0; i < 20; i++ {
		ticker.fire(t, svc)
	}

	assert.Equal(t, version, svc.Snapshot().Version)
	assert.Equal(t, int64(20), counter.ticks.Load())
	assert.Zero(t, counter.flips.Load())
}

func TestLotService_NoTickAfterStop(t *testing.T) {
	ticker := newManualTicker()
	svc := startLot(t, smallZones(), WithTicker(ticker.start))
	ctx := context.Background()
	require.NoError(t, svc.SetSimulation(ctx, true))
	ticker.fire(t, svc)
	require.NoError(t, svc.SetSimulation(ctx, false))
	version := svc.Snapshot().Version

	select {
	case ticker.ch <- time.Now():
		t.Fatal("coordinator accepted a tick after the simulation was stopped")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, version, svc.Snapshot().Version)
}

func TestLotService_RealTickerStops(t *testing.T) {
	svc := startLot(t, smallZones(), WithInterval(5*time.Millisecond))
	ctx := context.Background()
	start := svc.Snapshot().Version

	require.NoError(t, svc.SetSimulation(ctx, true))
	require.Eventually(t, func() bool {
		return svc.Snapshot().Version > start+3
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, svc.SetSimulation(ctx, false))
	stopped := svc.Snapshot().Version
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, stopped, svc.Snapshot().Version)
}

func TestLotService_UpdateSpotOnlyTouchesTarget(t *testing.T) {
	svc := startLot(t, layout.DefaultZones())
	ctx := context.Background()
	before := svc.Snapshot()
	target := before.Spots[5]

	occupied := !target.IsOccupied
	updated, err := svc.UpdateSpot(ctx, target.ID, entities.SpotUpdate{IsOccupied: &occupied})
	require.NoError(t, err)
	assert.Equal(t, occupied, updated.IsOccupied)

	after := svc.Snapshot()
	require.Len(t, after.Spots, len(before.Spots))
	for i := range after.Spots {
		if i == 5 {
			want := target
			want.IsOccupied = occupied
			assert.Equal(t, want, after.Spots[i])
			continue
		}
		assert.Equal(t, before.Spots[i], after.Spots[i])
	}
}

func TestLotService_UpdateSpotTypeAndColors(t *testing.T) {
	svc := startLot(t, smallZones())
	ctx := context.Background()

	typ := entities.SpotType("ev")
	free := "#ABCDEF"
	occ := "#123"
	spot, err := svc.UpdateSpot(ctx, "A-0", entities.SpotUpdate{Type: &typ, CustomColorFree: &free, CustomColorOccupied: &occ})
	require.NoError(t, err)
	assert.Equal(t, entities.SpotEV, spot.Type)
	assert.Equal(t, "#abcdef", spot.CustomColorFree)
	assert.Equal(t, "#123", spot.CustomColorOccupied)
	assert.Equal(t, "#ABCDEF", free, "caller input must not be rewritten")

	none := ""
	spot, err = svc.UpdateSpot(ctx, "A-0", entities.SpotUpdate{CustomColorFree: &none})
	require.NoError(t, err)
	assert.Empty(t, spot.CustomColorFree)
	assert.Equal(t, "#123", spot.CustomColorOccupied)
}

func TestLotService_UpdateSpotErrors(t *testing.T) {
	svc := startLot(t, smallZones())
	ctx := context.Background()
	on := true

	_, err := svc.UpdateSpot(ctx, "nope", entities.SpotUpdate{IsOccupied: &on})
	assert.ErrorIs(t, err, ErrSpotNotFound)

	_, err = svc.UpdateSpot(ctx, "A-0", entities.SpotUpdate{})
	assert.ErrorIs(t, err, ErrInvalidUpdate)

	bad := entities.SpotType("VIP")
	_, err = svc.UpdateSpot(ctx, "A-0", entities.SpotUpdate{Type: &bad})
	assert.ErrorIs(t, err, ErrInvalidUpdate)

	color := "blue"
	_, err = svc.UpdateSpot(ctx, "A-0", entities.SpotUpdate{CustomColorOccupied: &color})
	assert.ErrorIs(t, err, ErrInvalidUpdate)
}

func TestLotService_Selection(t *testing.T) {
	svc := startLot(t, smallZones())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Select(ctx, "Z-9"), ErrSpotNotFound)

	require.NoError(t, svc.Select(ctx, "B-1"))
	assert.Equal(t, "B-1", svc.Snapshot().SelectedID)

	require.NoError(t, svc.ClearSelection(ctx))
	assert.Empty(t, svc.Snapshot().SelectedID)
}

func TestLotService_ResetKeepsIdentityAndSelection(t *testing.T) {
	svc := startLot(t, layout.DefaultZones())
	ctx := context.Background()
	before := svc.Snapshot()

	typ := entities.SpotPriority
	_, err := svc.UpdateSpot(ctx, "Z1-0", entities.SpotUpdate{Type: &typ})
	require.NoError(t, err)
	require.NoError(t, svc.Select(ctx, "Z3-2"))
	require.NoError(t, svc.Reset(ctx))

	after := svc.Snapshot()
	require.Len(t, after.Spots, len(before.Spots))
	for i, s := range after.Spots {
		assert.False(t, s.IsOccupied)
		assert.Equal(t, before.Spots[i].ID, s.ID)
		assert.Equal(t, before.Spots[i].Label, s.Label)
		assert.Equal(t, before.Spots[i].Type, s.Type)
		assert.Equal(t, before.Spots[i].ZoneID, s.ZoneID)
	}
	assert.Equal(t, "Z3-2", after.SelectedID)
	assert.Equal(t, 0, after.Stats.Occupied)
}

func TestLotService_Subscribe(t *testing.T) {
	svc := startLot(t, smallZones())
	ctx := context.Background()
	ch, cancel := svc.Subscribe()

	require.NoError(t, svc.Select(ctx, "A-2"))
	select {
	case snap := <-ch:
		assert.Equal(t, "A-2", snap.SelectedID)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}

	// Several changes without reading leave only the latest queued.
	require.NoError(t, svc.Select(ctx, "A-0"))
	require.NoError(t, svc.Select(ctx, "A-1"))
	snap := <-ch
	assert.Equal(t, "A-1", snap.SelectedID)

	cancel()
	_, open := <-ch
	assert.False(t, open)
	cancel()
}
