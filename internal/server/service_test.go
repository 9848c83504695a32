package server

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sitepulse/sitepulse/internal/analytics"
	"github.com/sitepulse/sitepulse/internal/event"
	"github.com/sitepulse/sitepulse/internal/message"
	"github.com/sitepulse/sitepulse/internal/mockdata"
	"github.com/sitepulse/sitepulse/internal/platform/cache"
	"github.com/sitepulse/sitepulse/internal/settings"
	"github.com/sitepulse/sitepulse/internal/store"
)

func newTestService(t *testing.T) (*Service, *event.Bus) {
	t.Helper()

	bus := event.NewBus()
	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	mgr, err := settings.NewManager(fs, bus, settings.Default())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	history, err := store.NewHistory(fs, 0)
	if err != nil {
		t.Fatalf("NewHistory failed: %v", err)
	}

	coord, err := analytics.NewCoordinator(analytics.CoordinatorConfig{
		Cache:     cache.New(30 * time.Second),
		Transport: analytics.NewLocalTransport(mockdata.NewGenerator()),
		Settings:  mgr,
		Bus:       bus,
	})
	if err != nil {
		t.Fatalf("NewCoordinator failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc, err := NewService(ctx, ServiceConfig{
		Bus:         bus,
		Coordinator: coord,
		Settings:    mgr,
		History:     history,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(svc.Close)

	return svc, bus
}

func TestDispatch_GetTrafficData(t *testing.T) {
	svc, _ := newTestService(t)

	resp := svc.Dispatch(context.Background(), message.Message{
		Type: message.TypeGetTrafficData,
		Payload: message.MustMarshal(message.ParamsPayload{
			Params: map[string]string{"domain": "example.com"},
		}),
	})

	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}

	var payload mockdata.TrafficPayload
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("response is not a traffic payload: %v", err)
	}
	if payload.Domain != "example.com" {
		t.Errorf("payload for wrong domain: %q", payload.Domain)
	}
}

func TestDispatch_GetAnalyticsData(t *testing.T) {
	svc, _ := newTestService(t)

	resp := svc.Dispatch(context.Background(), message.Message{
		Type: message.TypeGetAnalyticsData,
		Payload: message.MustMarshal(message.ParamsPayload{
			Params: map[string]string{"domain": "example.com"},
		}),
	})

	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}

	var payload mockdata.AnalyticsPayload
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("response is not an analytics payload: %v", err)
	}
	if len(payload.Heatmap) == 0 {
		t.Errorf("expected a heatmap")
	}
}

func TestDispatch_GetRouteSuggestions(t *testing.T) {
	svc, _ := newTestService(t)

	resp := svc.Dispatch(context.Background(), message.Message{
		Type: message.TypeGetRouteSuggestions,
		Payload: message.MustMarshal(map[string]message.RouteParams{
			"params": {From: "Downtown", To: "Airport", DepartureTime: "2025-06-01T08:30:00Z"},
		}),
	})

	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}

	var routes []mockdata.RouteSuggestion
	if err := json.Unmarshal(resp.Data, &routes); err != nil {
		t.Fatalf("response is not a suggestion list: %v", err)
	}
	if len(routes) < 2 {
		t.Errorf("expected at least 2 suggestions, got %d", len(routes))
	}
}

func TestDispatch_RoutesRequireEndpoints(t *testing.T) {
	svc, _ := newTestService(t)

	resp := svc.Dispatch(context.Background(), message.Message{
		Type: message.TypeGetRouteSuggestions,
		Payload: message.MustMarshal(map[string]message.RouteParams{
			"params": {From: "Downtown"},
		}),
	})

	if resp.Success {
		t.Fatalf("expected failure for missing destination")
	}
}

func TestDispatch_UpdateSettings(t *testing.T) {
	svc, bus := newTestService(t)

	announced := false
	bus.On(event.SettingsChanged, func(any) { announced = true })

	resp := svc.Dispatch(context.Background(), message.Message{
		Type: message.TypeUpdateSettings,
		Payload: message.MustMarshal(settings.Settings{
			RefreshIntervalMs: 60000,
			TrackedDomains:    []string{"example.com"},
		}),
	})

	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
	if svc.settings.RefreshInterval() != time.Minute {
		t.Errorf("settings not applied: %v", svc.settings.RefreshInterval())
	}
	if !announced {
		t.Errorf("settingsChanged not emitted")
	}
}

func TestDispatch_UpdateSettingsValidationError(t *testing.T) {
	svc, _ := newTestService(t)

	before := svc.settings.Current()
	resp := svc.Dispatch(context.Background(), message.Message{
		Type: message.TypeUpdateSettings,
		Payload: message.MustMarshal(settings.Settings{
			RefreshIntervalMs: 60000,
			TrackedDomains:    []string{"not a domain"},
		}),
	})

	if resp.Success {
		t.Fatalf("expected validation failure")
	}
	if !strings.Contains(resp.Error, "trackedDomains") {
		t.Errorf("error should name the field, got %q", resp.Error)
	}
	if svc.settings.Current().RefreshIntervalMs != before.RefreshIntervalMs {
		t.Errorf("settings applied despite validation failure")
	}
}

func TestDispatch_RefreshData(t *testing.T) {
	svc, _ := newTestService(t)

	resp := svc.Dispatch(context.Background(), message.Message{Type: message.TypeRefreshData})

	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
	if resp.Data != nil {
		t.Errorf("refresh ack should carry no data")
	}
}

func TestDispatch_PageVisit(t *testing.T) {
	svc, _ := newTestService(t)

	resp := svc.Dispatch(context.Background(), message.Message{
		Type: message.TypePageVisit,
		Payload: message.MustMarshal(message.VisitPayload{
			Data: message.VisitData{URL: "https://example.com/pricing", Timestamp: 1748772000000},
		}),
	})

	if !resp.Success {
		t.Fatalf("expected ack, got error %q", resp.Error)
	}

	recent := svc.history.Recent()
	if len(recent) != 1 || recent[0].URL != "https://example.com/pricing" {
		t.Errorf("visit not recorded: %v", recent)
	}
}

func TestDispatch_PageVisitRequiresURL(t *testing.T) {
	svc, _ := newTestService(t)

	resp := svc.Dispatch(context.Background(), message.Message{
		Type:    message.TypePageVisit,
		Payload: message.MustMarshal(message.VisitPayload{}),
	})

	if resp.Success {
		t.Errorf("expected failure for empty url")
	}
}

func TestDispatch_UnknownType(t *testing.T) {
	svc, _ := newTestService(t)

	resp := svc.Dispatch(context.Background(), message.Message{Type: "NOT_A_THING"})

	if resp.Success {
		t.Fatalf("expected failure for unknown type")
	}
	if !strings.Contains(resp.Error, "unknown message type") {
		t.Errorf("unexpected error %q", resp.Error)
	}
}

func TestDispatch_SecondFetchHitsCache(t *testing.T) {
	svc, bus := newTestService(t)

	updates := 0
	bus.On(event.DataUpdated, func(any) { updates++ })

	msg := message.Message{
		Type: message.TypeGetTrafficData,
		Payload: message.MustMarshal(message.ParamsPayload{
			Params: map[string]string{"domain": "example.com"},
		}),
	}

	first := svc.Dispatch(context.Background(), msg)
	second := svc.Dispatch(context.Background(), msg)

	if !first.Success || !second.Success {
		t.Fatalf("fetches failed: %q %q", first.Error, second.Error)
	}
	if string(first.Data) != string(second.Data) {
		t.Errorf("cached dispatch returned different data")
	}
	if updates != 1 {
		t.Errorf("expected a single dataUpdated for two fetches, got %d", updates)
	}
}
