// Package transport implements the foreground side of the cross-process
// channel: a websocket connection to the daemon over which requests are
// exchanged for single responses and server pushes are mirrored onto the
// local event bus.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/sitepulse/sitepulse/internal/analytics"
	"github.com/sitepulse/sitepulse/internal/event"
	"github.com/sitepulse/sitepulse/internal/message"
	"github.com/sitepulse/sitepulse/internal/platform/observability"
)

// ErrDisconnected is returned when the channel to the daemon is gone.
var ErrDisconnected = errors.New("transport: daemon connection closed")

// Messenger is a request/response wrapper over one websocket connection.
// Exchanges are serialized: one request is in flight at a time, and the
// daemon answers each request with exactly one response frame. Each
// request carries a sequence number the daemon echoes; the read loop
// drops any response whose seq is not the in-flight exchange's, so a
// late reply to an abandoned exchange is never delivered to a later
// caller. There is no retry and no built-in timeout; callers impose
// deadlines through ctx if they need them.
type Messenger struct {
	conn   *websocket.Conn
	bus    *event.Bus
	logger *observability.Logger

	reqMu    sync.Mutex // serializes request/response exchanges
	writeMu  sync.Mutex
	respCh   chan message.Response
	lastSeq  uint64        // guarded by reqMu
	inflight atomic.Uint64 // seq of the exchange awaiting its response; 0 when idle

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial connects to the daemon's websocket endpoint and starts the read
// loop. Pushed events are emitted on bus; connectionChanged fires with
// true now and false when the connection drops.
func Dial(ctx context.Context, url string, bus *event.Bus, logger *observability.Logger) (*Messenger, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial daemon at %s: %w", url, err)
	}

	m := newMessenger(conn, bus, logger)
	if bus != nil {
		bus.Emit(event.ConnectionChanged, true)
	}
	return m, nil
}

func newMessenger(conn *websocket.Conn, bus *event.Bus, logger *observability.Logger) *Messenger {
	if logger == nil {
		logger = observability.NewLogger("info", "text")
	}
	m := &Messenger{
		conn:   conn,
		bus:    bus,
		logger: logger,
		respCh: make(chan message.Response, 1),
		closed: make(chan struct{}),
	}
	go m.readLoop()
	return m
}

// Send writes msg and waits for its response. It resolves with the
// response data on success and fails with the carried error otherwise.
// Abandoning the wait via ctx does not cancel the exchange on the daemon;
// its eventual reply is discarded by seq, never delivered to a later Send.
func (m *Messenger) Send(ctx context.Context, msg message.Message) (json.RawMessage, error) {
	m.reqMu.Lock()
	defer m.reqMu.Unlock()

	select {
	case <-m.closed:
		return nil, ErrDisconnected
	default:
	}

	// Discard a response left over from an exchange the sender abandoned,
	// so it is not mistaken for this request's reply.
	select {
	case <-m.respCh:
	default:
	}

	m.lastSeq++
	seq := m.lastSeq
	m.inflight.Store(seq)
	defer m.inflight.Store(0)

	if err := m.writeFrame(message.Frame{Kind: message.FrameRequest, Seq: seq, Message: &msg}); err != nil {
		return nil, fmt.Errorf("send %s: %w", msg.Type, err)
	}

	select {
	case resp := <-m.respCh:
		if !resp.Success {
			if resp.Error == "" {
				return nil, fmt.Errorf("%s: request failed", msg.Type)
			}
			return nil, fmt.Errorf("%s: %s", msg.Type, resp.Error)
		}
		return resp.Data, nil
	case <-m.closed:
		return nil, ErrDisconnected
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Messenger) writeFrame(f message.Frame) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.conn.WriteJSON(f)
}

func (m *Messenger) readLoop() {
	defer m.shutdown()

	for {
		var f message.Frame
		if err := m.conn.ReadJSON(&f); err != nil {
			return
		}
		if err := f.Validate(); err != nil {
			m.logger.Warn("dropping malformed frame", "error", err)
			continue
		}

		switch f.Kind {
		case message.FrameResponse:
			if f.Seq != m.inflight.Load() {
				// Reply to an exchange the sender already abandoned.
				m.logger.Debug("dropping response for abandoned exchange", "seq", f.Seq)
				continue
			}
			select {
			case m.respCh <- *f.Response:
			default:
				// The sender abandoned between the seq check and here;
				// drop it.
			}
		case message.FrameEvent:
			if m.bus != nil {
				m.bus.Emit(f.Event.Name, f.Event.Data)
			}
		case message.FrameRequest:
			m.logger.Warn("daemon sent a request frame, dropping")
		}
	}
}

func (m *Messenger) shutdown() {
	m.closeOnce.Do(func() {
		close(m.closed)
		m.conn.Close()
		if m.bus != nil {
			m.bus.Emit(event.ConnectionChanged, false)
		}
	})
}

// Close tears the connection down. Safe to call more than once.
func (m *Messenger) Close() error {
	m.shutdown()
	return nil
}

// FetchData implements the coordinator's transport over the message
// channel, mapping request kinds onto protocol message types.
func (m *Messenger) FetchData(ctx context.Context, req analytics.Request) (json.RawMessage, error) {
	msg, err := fetchMessage(req)
	if err != nil {
		return nil, err
	}
	return m.Send(ctx, msg)
}

func fetchMessage(req analytics.Request) (message.Message, error) {
	switch req.Kind {
	case analytics.KindTraffic:
		return message.Message{
			Type:    message.TypeGetTrafficData,
			Payload: message.MustMarshal(message.ParamsPayload{Params: req.Params}),
		}, nil

	case analytics.KindAnalytics:
		return message.Message{
			Type:    message.TypeGetAnalyticsData,
			Payload: message.MustMarshal(message.ParamsPayload{Params: req.Params}),
		}, nil

	case analytics.KindRoutes:
		return message.Message{
			Type: message.TypeGetRouteSuggestions,
			Payload: message.MustMarshal(message.RouteParams{
				From:          req.Params[analytics.ParamFrom],
				To:            req.Params[analytics.ParamTo],
				DepartureTime: req.Params[analytics.ParamDepartureTime],
			}),
		}, nil
	}

	return message.Message{}, fmt.Errorf("transport: unknown request kind %q", req.Kind)
}
