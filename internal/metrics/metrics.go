// Package metrics exposes lot and simulation gauges for Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartpark/internal/entities"
)

type Metrics struct {
	registry *prometheus.Registry

	spots         *prometheus.GaugeVec
	occupancyRate prometheus.Gauge
	simulating    prometheus.Gauge
	ticks         prometheus.Counter
	flips         prometheus.Counter
	analyses      *prometheus.CounterVec
	analysisTime  *prometheus.HistogramVec
	wsClients     prometheus.Gauge
}

// New registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		spots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "smartpark",
			Name:      "spots",
			Help:      "Number of spots by type and state.",
		}, []string{"type", "state"}),
		occupancyRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smartpark",
			Name:      "occupancy_ratio",
			Help:      "Occupied spots divided by total spots.",
		}),
		simulating: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smartpark",
			Name:      "simulation_running",
			Help:      "1 while the occupancy simulation is running.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smartpark",
			Name:      "simulation_ticks_total",
			Help:      "Simulation ticks processed.",
		}),
		flips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smartpark",
			Name:      "simulation_flips_total",
			Help:      "Spot occupancy flips applied by the simulation.",
		}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartpark",
			Name:      "analysis_requests_total",
			Help:      "Analysis requests by trigger.",
		}, []string{"trigger"}),
		analysisTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "smartpark",
			Name:      "analysis_duration_seconds",
			Help:      "Time spent waiting for the analysis service.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"trigger"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smartpark",
			Name:      "websocket_clients",
			Help:      "Connected dashboard websocket clients.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.spots, m.occupancyRate, m.simulating, m.ticks, m.flips,
		m.analyses, m.analysisTime, m.wsClients,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTick counts a processed simulation tick.
func (m *Metrics) ObserveTick(flips int) {
	m.ticks.Inc()
	m.flips.Add(float64(flips))
}

func (m *Metrics) ObserveAnalysis(trigger string, d time.Duration) {
	m.analyses.WithLabelValues(trigger).Inc()
	m.analysisTime.WithLabelValues(trigger).Observe(d.Seconds())
}

func (m *Metrics) ClientConnected()    { m.wsClients.Inc() }
func (m *Metrics) ClientDisconnected() { m.wsClients.Dec() }

// ObserveSnapshot sets the lot gauges from s.
func (m *Metrics) ObserveSnapshot(s *entities.Snapshot) {
	for t, b := range s.Stats.Breakdown {
		m.spots.WithLabelValues(string(t), "available").Set(float64(b.Available))
		m.spots.WithLabelValues(string(t), "occupied").Set(float64(b.Total - b.Available))
	}
	if s.Stats.Total > 0 {
		m.occupancyRate.Set(float64(s.Stats.Occupied) / float64(s.Stats.Total))
	} else {
		m.occupancyRate.Set(0)
	}
	if s.Simulating {
		m.simulating.Set(1)
	} else {
		m.simulating.Set(0)
	}
}

// Follow updates the lot gauges from every snapshot until ctx is done or
// updates is closed.
func (m *Metrics) Follow(ctx context.Context, updates <-chan *entities.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-updates:
			if !ok {
				return nil
			}
			m.ObserveSnapshot(s)
		}
	}
}
