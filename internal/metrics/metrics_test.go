package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartpark/internal/entities"
)

func TestObserveSnapshot(t *testing.T) {
	m := New()
	m.ObserveSnapshot(&entities.Snapshot{
		Simulating: true,
		Stats: entities.ParkingStats{
			Total: 4, Occupied: 1, Available: 3,
			Breakdown: map[entities.SpotType]entities.TypeAvailability{
				entities.SpotStandard: {Total: 3, Available: 2},
				entities.SpotDisabled: {Total: 1, Available: 1},
			},
		},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.spots.WithLabelValues("STANDARD", "available")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.spots.WithLabelValues("STANDARD", "occupied")))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.occupancyRate))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.simulating))
}

func TestObserveTickAndAnalysis(t *testing.T) {
	m := New()
	m.ObserveTick(2)
	m.ObserveTick(0)
	m.ObserveAnalysis("manual", 1500*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.flips))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("manual")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ClientConnected()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "smartpark_websocket_clients 1")
}
