package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sitepulse/sitepulse/internal/event"
	"github.com/sitepulse/sitepulse/internal/message"
	"github.com/sitepulse/sitepulse/internal/platform/observability"
)

func TestHub_EmitsConnectionChangedOnConnectAndDisconnect(t *testing.T) {
	bus := event.NewBus()
	counts := make(chan int, 4)
	bus.On(event.ConnectionChanged, func(data any) {
		if n, ok := data.(int); ok {
			counts <- n
		}
	})

	dispatch := func(_ context.Context, _ message.Message) message.Response {
		return message.Ok(nil)
	}
	hub := NewHub(dispatch, observability.NewLogger("error", "text"), nil, bus)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	waitForCount(t, counts, 1)

	conn.Close()
	waitForCount(t, counts, 0)
}

func waitForCount(t *testing.T, counts <-chan int, want int) {
	t.Helper()
	select {
	case got := <-counts:
		if got != want {
			t.Fatalf("connectionChanged carried %d clients, want %d", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no connectionChanged emission, want count %d", want)
	}
}
