// Package server implements the background daemon: the websocket hub
// foreground clients connect to, the message dispatcher, and the periodic
// refresher that regenerates tracked domains and pushes updates out.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/sitepulse/sitepulse/internal/event"
	"github.com/sitepulse/sitepulse/internal/message"
	"github.com/sitepulse/sitepulse/internal/platform/observability"
)

// DispatchFunc handles one protocol message and produces its single
// response.
type DispatchFunc func(ctx context.Context, msg message.Message) message.Response

// Hub accepts websocket clients, feeds their requests through the
// dispatcher and fans pushed events out to every connected client.
// Connects and disconnects are announced as connectionChanged on the bus,
// carrying the new client count.
type Hub struct {
	logger   *observability.Logger
	metrics  *observability.Metrics
	bus      *event.Bus
	dispatch DispatchFunc
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*hubConn]struct{}
}

// hubConn wraps a client connection with a write lock, since the
// dispatcher reply and broadcasts race for the same socket.
type hubConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *hubConn) writeFrame(f message.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(f)
}

// NewHub creates a Hub dispatching through dispatch. bus may be nil.
func NewHub(dispatch DispatchFunc, logger *observability.Logger, metrics *observability.Metrics, bus *event.Bus) *Hub {
	return &Hub{
		logger:   logger,
		metrics:  metrics,
		bus:      bus,
		dispatch: dispatch,
		conns:    make(map[*hubConn]struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket and serves the protocol
// until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.LogWarn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := &hubConn{conn: conn}
	h.add(c)
	defer h.remove(c)

	h.logger.LogInfo(r.Context(), "client connected", "remote", conn.RemoteAddr().String())
	defer h.logger.LogInfo(r.Context(), "client disconnected", "remote", conn.RemoteAddr().String())

	for {
		var f message.Frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		if err := f.Validate(); err != nil {
			c.writeFrame(message.Frame{
				Kind:     message.FrameResponse,
				Seq:      f.Seq,
				Response: respPtr(message.Fail("malformed frame: %v", err)),
			})
			continue
		}
		if f.Kind != message.FrameRequest {
			h.logger.LogWarn(r.Context(), "client sent non-request frame", "kind", string(f.Kind))
			continue
		}

		resp := h.dispatch(r.Context(), *f.Message)
		if err := c.writeFrame(message.Frame{Kind: message.FrameResponse, Seq: f.Seq, Response: &resp}); err != nil {
			return
		}
	}
}

func respPtr(r message.Response) *message.Response {
	return &r
}

func (h *Hub) add(c *hubConn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.recordClients(n)
}

func (h *Hub) remove(c *hubConn) {
	h.mu.Lock()
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()
	c.conn.Close()
	h.recordClients(n)
}

func (h *Hub) recordClients(n int) {
	if h.metrics != nil {
		h.metrics.ConnectedClients.Record(context.Background(), int64(n))
	}
	if h.bus != nil {
		h.bus.Emit(event.ConnectionChanged, n)
	}
}

// Broadcast pushes an event frame to every connected client. A client
// whose write fails is dropped; its read loop will notice and clean up.
func (h *Hub) Broadcast(evt message.Event) {
	h.mu.Lock()
	targets := make([]*hubConn, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	frame := message.Frame{Kind: message.FrameEvent, Event: &evt}
	for _, c := range targets {
		if err := c.writeFrame(frame); err != nil {
			c.conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// CloseAll disconnects every client; used at shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.conn.Close()
	}
}
