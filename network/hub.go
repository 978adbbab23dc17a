// Package network streams published cloth frames to browser clients over websockets
package network

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lixenwraith/vi-cloth/engine"
	"github.com/lixenwraith/vi-cloth/mesh"
	"github.com/lixenwraith/vi-cloth/parameter"
	"github.com/lixenwraith/vi-cloth/physics"
	"github.com/lixenwraith/vi-cloth/status"
)

// Hub fans frames out to every connected websocket client
// Observe never blocks: a client whose queue is full misses that frame
type Hub struct {
	hello    Hello
	registry *status.Registry
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu         sync.RWMutex
	clients    map[uuid.UUID]*client
	pending    int // slots reserved by handshakes in flight
	maxClients int

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewHub prepares the hello payload for a cloth built from cfg
func NewHub(cfg physics.Config, registry *status.Registry, log *slog.Logger) (*Hub, error) {
	grid, err := physics.NewGrid(cfg.Width, cfg.Height, cfg.Spacing)
	if err != nil {
		return nil, fmt.Errorf("building rest grid: %w", err)
	}
	m, err := mesh.Build(grid.Width, grid.Height, grid.Positions(nil))
	if err != nil {
		return nil, fmt.Errorf("building mesh: %w", err)
	}
	if registry == nil {
		registry = status.NewRegistry()
	}
	if log == nil {
		log = slog.Default()
	}

	return &Hub{
		hello: Hello{
			Width:     m.Width,
			Height:    m.Height,
			Spacing:   cfg.Spacing,
			UVs:       m.UVs,
			Triangles: m.Triangles,
		},
		registry: registry,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			// Viewer pages may be served from anywhere
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[uuid.UUID]*client),
		maxClients: parameter.StreamMaxClients,
	}, nil
}

// Handler returns the HTTP routes: /ws for streaming and /healthz for the status snapshot
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/healthz", h.serveHealth)
	return mux
}

// ServeWS upgrades the request, sends the hello message and registers the client
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if !h.reserve() {
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.release()
		h.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newClient(uuid.New(), conn, parameter.FrameQueueSize)
	hello := h.hello
	hello.ClientID = c.id.String()

	_ = conn.SetWriteDeadline(time.Now().Add(parameter.StreamWriteWait))
	if err := conn.WriteJSON(Message{Type: MsgHello, Hello: &hello}); err != nil {
		h.release()
		h.log.Warn("hello failed", "client", c.id, "err", err)
		conn.Close()
		return
	}

	h.add(c)
	go h.watch(c)
	go c.writeLoop()
	go c.readLoop()
}

// Observe is an engine.Observer; the frame is encoded once and shared by all clients
func (h *Hub) Observe(frame engine.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(Message{Type: MsgFrame, Frame: &frame})
	if err != nil {
		h.log.Error("frame encode failed", "tick", frame.Tick, "err", err)
		return
	}
	msg, err := websocket.NewPreparedMessage(websocket.TextMessage, data)
	if err != nil {
		h.log.Error("frame prepare failed", "tick", frame.Tick, "err", err)
		return
	}

	for _, c := range h.clients {
		if c.send(msg) {
			h.sent.Add(1)
		} else {
			h.dropped.Add(1)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns delivered and dropped frame counts across all clients
func (h *Hub) Stats() (sent, dropped uint64) {
	return h.sent.Load(), h.dropped.Load()
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
}

// reserve claims a client slot before the handshake; connected plus in-flight never exceeds maxClients
func (h *Hub) reserve() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients)+h.pending >= h.maxClients {
		return false
	}
	h.pending++
	return true
}

func (h *Hub) release() {
	h.mu.Lock()
	h.pending--
	h.mu.Unlock()
}

// add turns a reserved slot into a registered client
func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.pending--
	h.clients[c.id] = c
	n := len(h.clients)
	h.registry.Clients.Store(int64(n))
	h.mu.Unlock()

	h.log.Info("client connected", "client", c.id, "clients", n)
}

// watch unregisters a client once its connection closes
func (h *Hub) watch(c *client) {
	<-c.closeCh

	h.mu.Lock()
	delete(h.clients, c.id)
	n := len(h.clients)
	h.registry.Clients.Store(int64(n))
	h.mu.Unlock()

	h.log.Info("client disconnected", "client", c.id, "clients", n)
}

func (h *Hub) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.registry.Snapshot()); err != nil {
		h.log.Warn("health encode failed", "err", err)
	}
}
