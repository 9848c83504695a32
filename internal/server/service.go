package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sitepulse/sitepulse/internal/analytics"
	"github.com/sitepulse/sitepulse/internal/event"
	"github.com/sitepulse/sitepulse/internal/message"
	"github.com/sitepulse/sitepulse/internal/platform/observability"
	"github.com/sitepulse/sitepulse/internal/settings"
	"github.com/sitepulse/sitepulse/internal/store"
)

// Service is the daemon's privileged core: it owns the coordinator,
// settings, visit history and hub, and answers the message protocol.
// Everything is constructed explicitly and passed in; there is no
// package-level state.
type Service struct {
	logger   *observability.Logger
	metrics  *observability.Metrics
	bus      *event.Bus
	coord    *analytics.Coordinator
	settings *settings.Manager
	history  *store.History
	hub      *Hub

	refresher *Refresher
	disposers []func()
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Logger      *observability.Logger
	Metrics     *observability.Metrics
	Bus         *event.Bus
	Coordinator *analytics.Coordinator
	Settings    *settings.Manager
	History     *store.History

	// RefreshWorkers bounds concurrent regeneration jobs; defaults to 4.
	RefreshWorkers int
}

// NewService creates the daemon core and subscribes it to the bus so
// coordinator and settings events reach connected clients.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	if cfg.Coordinator == nil || cfg.Settings == nil || cfg.History == nil || cfg.Bus == nil {
		return nil, fmt.Errorf("server: coordinator, settings, history and bus are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NewLogger("info", "text")
	}
	if cfg.RefreshWorkers <= 0 {
		cfg.RefreshWorkers = 4
	}

	s := &Service{
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		bus:      cfg.Bus,
		coord:    cfg.Coordinator,
		settings: cfg.Settings,
		history:  cfg.History,
	}
	s.hub = NewHub(s.Dispatch, cfg.Logger, cfg.Metrics, cfg.Bus)
	s.refresher = NewRefresher(ctx, RefresherConfig{
		Coordinator: cfg.Coordinator,
		Settings:    cfg.Settings,
		Logger:      cfg.Logger,
		Metrics:     cfg.Metrics,
		Workers:     cfg.RefreshWorkers,
	})

	// Mirror local bus events to connected clients.
	s.disposers = append(s.disposers,
		cfg.Bus.On(event.DataUpdated, func(data any) {
			update, ok := data.(analytics.DataUpdate)
			if !ok {
				return
			}
			s.hub.Broadcast(message.Event{
				Name: event.DataUpdated,
				Data: message.MustMarshal(map[string]json.RawMessage{
					"kind": message.MustMarshal(string(update.Kind)),
					"data": update.Data,
				}),
			})
		}),
		cfg.Bus.On(event.SettingsChanged, func(data any) {
			cur, ok := data.(settings.Settings)
			if !ok {
				return
			}
			s.hub.Broadcast(message.Event{
				Name: event.SettingsChanged,
				Data: message.MustMarshal(cur),
			})
		}),
	)

	return s, nil
}

// Hub returns the websocket hub (registered as an HTTP handler by main).
func (s *Service) Hub() *Hub {
	return s.hub
}

// Refresher returns the periodic refresher; main runs it.
func (s *Service) Refresher() *Refresher {
	return s.refresher
}

// Close detaches bus subscriptions and disconnects clients.
func (s *Service) Close() {
	for _, off := range s.disposers {
		off()
	}
	s.refresher.Close()
	s.hub.CloseAll()
}

// Dispatch answers one protocol message. Every known type produces a
// response; unknown types produce a typed error response rather than
// silence, so a misbehaving client hears about it.
func (s *Service) Dispatch(ctx context.Context, msg message.Message) message.Response {
	if s.metrics != nil {
		s.metrics.MessagesDispatched.Add(ctx, 1)
	}

	switch msg.Type {
	case message.TypeGetTrafficData:
		return s.handleFetch(ctx, msg.Payload, analytics.KindTraffic)

	case message.TypeGetAnalyticsData:
		return s.handleFetch(ctx, msg.Payload, analytics.KindAnalytics)

	case message.TypeGetRouteSuggestions:
		return s.handleRoutes(ctx, msg.Payload)

	case message.TypeUpdateSettings:
		return s.handleUpdateSettings(msg.Payload)

	case message.TypeRefreshData:
		return s.handleRefresh()

	case message.TypePageVisit:
		return s.handlePageVisit(ctx, msg.Payload)
	}

	return message.Fail("unknown message type %q", msg.Type)
}

func (s *Service) handleFetch(ctx context.Context, payload json.RawMessage, kind analytics.Kind) message.Response {
	var p message.ParamsPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return message.Fail("invalid %s payload: %v", kind, err)
		}
	}
	if p.Params == nil {
		p.Params = map[string]string{}
	}

	data := s.coord.Fetch(ctx, analytics.Request{Kind: kind, Params: p.Params})
	return message.Ok(data)
}

func (s *Service) handleRoutes(ctx context.Context, payload json.RawMessage) message.Response {
	var p struct {
		Params message.RouteParams `json:"params"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return message.Fail("invalid route payload: %v", err)
	}
	if p.Params.From == "" && p.Params.To == "" {
		// Some clients send the route fields at the top level instead of
		// under params.
		if err := json.Unmarshal(payload, &p.Params); err != nil {
			return message.Fail("invalid route payload: %v", err)
		}
	}
	if p.Params.From == "" || p.Params.To == "" {
		return message.Fail("route suggestions require from and to")
	}

	params := map[string]string{
		analytics.ParamFrom: p.Params.From,
		analytics.ParamTo:   p.Params.To,
	}
	if p.Params.DepartureTime != "" {
		params[analytics.ParamDepartureTime] = p.Params.DepartureTime
	}

	data := s.coord.Fetch(ctx, analytics.Request{Kind: analytics.KindRoutes, Params: params})
	return message.Ok(data)
}

func (s *Service) handleUpdateSettings(payload json.RawMessage) message.Response {
	var next settings.Settings
	if err := json.Unmarshal(payload, &next); err != nil {
		return message.Fail("invalid settings payload: %v", err)
	}

	if err := s.settings.Update(next); err != nil {
		var verr *settings.ValidationError
		if errors.As(err, &verr) {
			return message.Fail("%s", verr.Error())
		}
		return message.Fail("failed to apply settings: %v", err)
	}

	return message.Ok(nil)
}

func (s *Service) handleRefresh() message.Response {
	s.coord.ClearCache()
	s.refresher.Kick()
	return message.Ok(nil)
}

func (s *Service) handlePageVisit(ctx context.Context, payload json.RawMessage) message.Response {
	var p message.VisitPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return message.Fail("invalid visit payload: %v", err)
	}
	if p.Data.URL == "" {
		return message.Fail("visit requires a url")
	}

	ts := time.UnixMilli(p.Data.Timestamp)
	if p.Data.Timestamp == 0 {
		ts = time.Now()
	}

	if err := s.history.Record(p.Data.URL, ts); err != nil {
		s.logger.LogError(ctx, "failed to record visit", err, "url", p.Data.URL)
		return message.Fail("failed to record visit")
	}

	return message.Ok(nil)
}
