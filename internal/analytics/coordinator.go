package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sitepulse/sitepulse/internal/event"
	"github.com/sitepulse/sitepulse/internal/platform/cache"
	"github.com/sitepulse/sitepulse/internal/platform/observability"
)

// Coordinator is the single entry point for data reads. Read path:
// fresh cache, then transport, then stale cache, then a fixed placeholder.
// Fetch never fails; a transport error degrades the result instead.
//
// Concurrent identical requests are not de-duplicated: two callers racing
// past the cache check both hit the transport.
type Coordinator struct {
	cache     *cache.TTLCache
	transport Transport
	bus       *event.Bus
	settings  SettingsSource
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// CoordinatorConfig wires a Coordinator. Cache, Transport and Settings are
// required; Bus, Logger and Metrics may be nil.
type CoordinatorConfig struct {
	Cache     *cache.TTLCache
	Transport Transport
	Settings  SettingsSource
	Bus       *event.Bus
	Logger    *observability.Logger
	Metrics   *observability.Metrics
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("coordinator: cache is required")
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("coordinator: transport is required")
	}
	if cfg.Settings == nil {
		return nil, fmt.Errorf("coordinator: settings source is required")
	}

	if cfg.Logger == nil {
		cfg.Logger = observability.NewLogger("info", "text")
	}

	return &Coordinator{
		cache:     cfg.Cache,
		transport: cfg.Transport,
		bus:       cfg.Bus,
		settings:  cfg.Settings,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}, nil
}

// Fetch returns a payload for req. The result is always renderable: on
// transport failure it is the last cached value (even past its TTL) or the
// kind's placeholder payload carrying an inline error marker.
func (c *Coordinator) Fetch(ctx context.Context, req Request) json.RawMessage {
	// Settings changes apply from this call onward; entries already
	// written keep their original deadlines.
	c.cache.SetTTL(c.settings.RefreshInterval())

	key := req.CacheKey()

	if cached, err := c.cache.Get(key); err == nil {
		if c.metrics != nil {
			c.metrics.CacheHits.Add(ctx, 1)
		}
		return cached.(json.RawMessage)
	}
	if c.metrics != nil {
		c.metrics.CacheMisses.Add(ctx, 1)
	}

	data, err := c.fetchAndStore(ctx, req, key)
	if err == nil {
		return data
	}

	c.logger.LogWarn(ctx, "transport fetch failed, degrading",
		"kind", string(req.Kind), "error", err)

	if stale, staleErr := c.cache.GetStale(key); staleErr == nil {
		if c.metrics != nil {
			c.metrics.StaleServed.Add(ctx, 1)
		}
		return stale.(json.RawMessage)
	}

	if c.metrics != nil {
		c.metrics.FallbacksServed.Add(ctx, 1)
	}
	return Fallback(req.Kind, req)
}

// Refresh bypasses the cache: it always calls the transport, stores the
// result and emits dataUpdated. Unlike Fetch it reports failure, so the
// caller (the background refresher) can log and skip broadcasting.
func (c *Coordinator) Refresh(ctx context.Context, req Request) (json.RawMessage, error) {
	c.cache.SetTTL(c.settings.RefreshInterval())
	return c.fetchAndStore(ctx, req, req.CacheKey())
}

func (c *Coordinator) fetchAndStore(ctx context.Context, req Request, key string) (json.RawMessage, error) {
	if c.metrics != nil {
		c.metrics.TransportCalls.Add(ctx, 1)
	}

	data, err := c.transport.FetchData(ctx, req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.TransportFailures.Add(ctx, 1)
		}
		return nil, err
	}

	c.cache.Set(key, data)

	if c.bus != nil {
		c.bus.Emit(event.DataUpdated, DataUpdate{Kind: req.Kind, Data: data})
	}
	return data, nil
}

// ClearCache drops every cached payload. The cache's clear hook, if any,
// announces it.
func (c *Coordinator) ClearCache() {
	c.cache.Clear()
}
