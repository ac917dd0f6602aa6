package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"smartpark/internal/entities"
	"smartpark/internal/render"
	"smartpark/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Envelope is the frame pushed to dashboard clients.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const EventDashboard = "dashboard"

// ClientObserver is told about websocket clients coming and going.
type ClientObserver interface {
	ClientConnected()
	ClientDisconnected()
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes a fresh dashboard frame to every websocket client whenever the
// lot or the analysis state changes.
type Hub struct {
	lot      *service.LotService
	analysis *service.AnalysisService
	observer ClientObserver
	logger   *slog.Logger
	upgrader websocket.Upgrader

	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	analysisC  chan struct{}
	done       chan struct{}
}

func NewHub(lot *service.LotService, analysis *service.AnalysisService, allowedOrigins []string, observer ClientObserver, logger *slog.Logger) *Hub {
	h := &Hub{
		lot:        lot,
		analysis:   analysis,
		observer:   observer,
		logger:     logger,
		clients:    map[*client]bool{},
		register:   make(chan *client),
		unregister: make(chan *client),
		analysisC:  make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	analysis.OnChange(func(entities.AnalysisState) {
		select {
		case h.analysisC <- struct{}{}:
		default:
		}
	})
	return h
}

// originChecker allows every origin when none are configured.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	updates, cancel := h.lot.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return nil
		case c := <-h.register:
			h.clients[c] = true
			if h.observer != nil {
				h.observer.ClientConnected()
			}
			if frame, ok := h.frame(h.lot.Snapshot()); ok {
				h.deliver(c, frame)
			}
		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
			}
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			h.broadcast(snap)
		case <-h.analysisC:
			h.broadcast(h.lot.Snapshot())
		}
	}
}

func (h *Hub) broadcast(snap *entities.Snapshot) {
	if len(h.clients) == 0 {
		return
	}
	frame, ok := h.frame(snap)
	if !ok {
		return
	}
	for c := range h.clients {
		h.deliver(c, frame)
	}
}

// deliver drops a client whose buffer is full.
func (h *Hub) deliver(c *client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		h.logger.Warn("Dropping slow websocket client", "client", c.id)
		h.drop(c)
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	if h.observer != nil {
		h.observer.ClientDisconnected()
	}
}

func (h *Hub) frame(snap *entities.Snapshot) ([]byte, bool) {
	payload, err := json.Marshal(render.BuildDashboard(h.lot.Zones(), snap, h.analysis.State()))
	if err != nil {
		h.logger.Error("Encoding dashboard frame failed", "error", err)
		return nil, false
	}
	b, err := json.Marshal(Envelope{Type: EventDashboard, Payload: payload})
	if err != nil {
		return nil, false
	}
	return b, true
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("Websocket upgrade failed", "error", err)
		return
	}
	c := &client{id: uuid.New().String(), conn: conn, send: make(chan []byte, sendBuffer)}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go h.writer(c)
	go h.reader(c)
}

// reader only handles control frames; dashboard commands go through the REST API.
func (h *Hub) reader(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writer(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
