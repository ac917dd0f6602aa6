// Package events relays lot changes to a NATS subject so other services can
// follow occupancy without polling the HTTP API.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"smartpark/internal/entities"
	"smartpark/internal/stats"
)

// LotEvent is the message published for every lot snapshot.
type LotEvent struct {
	Version       uint64                `json:"version"`
	Simulating    bool                  `json:"isSimulating"`
	SelectedID    string                `json:"selectedSpotId,omitempty"`
	Stats         entities.ParkingStats `json:"stats"`
	OccupancyRate float64               `json:"occupancyRate"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

func NewLotEvent(s *entities.Snapshot) LotEvent {
	return LotEvent{
		Version:       s.Version,
		Simulating:    s.Simulating,
		SelectedID:    s.SelectedID,
		Stats:         s.Stats,
		OccupancyRate: stats.OccupancyRate(s.Stats),
		UpdatedAt:     s.UpdatedAt,
	}
}

type Publisher interface {
	Publish(subject string, data []byte) error
}

// Connect dials NATS with unlimited reconnects and logs connection changes.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("smartpark"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// Relay publishes every snapshot read from updates until ctx is done or
// updates is closed. Publish failures are logged and skipped.
type Relay struct {
	pub     Publisher
	subject string
	logger  *slog.Logger
}

func NewRelay(pub Publisher, subject string, logger *slog.Logger) *Relay {
	return &Relay{pub: pub, subject: subject, logger: logger}
}

func (r *Relay) Run(ctx context.Context, updates <-chan *entities.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if err := r.Publish(snap); err != nil {
				r.logger.Warn("Failed to publish lot event", "subject", r.subject, "version", snap.Version, "error", err)
			}
		}
	}
}

func (r *Relay) Publish(snap *entities.Snapshot) error {
	data, err := json.Marshal(NewLotEvent(snap))
	if err != nil {
		return fmt.Errorf("encode lot event: %w", err)
	}
	return r.pub.Publish(r.subject, data)
}
