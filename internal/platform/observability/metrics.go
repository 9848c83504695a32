package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Metrics holds all application metric instruments. When metrics are
// disabled every instrument is a noop recorder, so call sites never need
// nil checks on individual instruments.
type Metrics struct {
	meter metric.Meter

	// Data-access layer
	CacheHits       metric.Int64Counter
	CacheMisses     metric.Int64Counter
	StaleServed     metric.Int64Counter
	FallbacksServed metric.Int64Counter

	// Transport
	TransportCalls    metric.Int64Counter
	TransportFailures metric.Int64Counter

	// Daemon message handling
	MessagesDispatched metric.Int64Counter
	ConnectedClients   metric.Int64Gauge

	// Background refresh
	RefreshCycles   metric.Int64Counter
	RefreshDuration metric.Float64Histogram

	enabled  bool
	exporter *prometheus.Exporter
}

// NewMetrics creates a Metrics instance. When disabled, the instruments
// still record (into a provider nothing reads) and Handler returns 404s.
func NewMetrics(serviceName string, enabled bool) (*Metrics, error) {
	m := &Metrics{enabled: enabled}

	if enabled {
		res, err := resource.New(
			context.Background(),
			resource.WithAttributes(
				semconv.ServiceNameKey.String(serviceName),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource: %w", err)
		}

		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		m.exporter = exporter

		provider := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		m.meter = provider.Meter(serviceName)
	} else {
		m.meter = sdkmetric.NewMeterProvider().Meter(serviceName)
	}

	if err := m.initInstruments(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) initInstruments() error {
	var err error

	m.CacheHits, err = m.meter.Int64Counter(
		"sitepulse.cache.hits",
		metric.WithDescription("Fresh cache hits in the data-access layer"),
	)
	if err != nil {
		return err
	}

	m.CacheMisses, err = m.meter.Int64Counter(
		"sitepulse.cache.misses",
		metric.WithDescription("Cache misses that reached the transport"),
	)
	if err != nil {
		return err
	}

	m.StaleServed, err = m.meter.Int64Counter(
		"sitepulse.cache.stale_served",
		metric.WithDescription("Stale cache entries served after a transport failure"),
	)
	if err != nil {
		return err
	}

	m.FallbacksServed, err = m.meter.Int64Counter(
		"sitepulse.fallbacks.served",
		metric.WithDescription("Fixed placeholder payloads served"),
	)
	if err != nil {
		return err
	}

	m.TransportCalls, err = m.meter.Int64Counter(
		"sitepulse.transport.calls",
		metric.WithDescription("Transport fetches issued"),
	)
	if err != nil {
		return err
	}

	m.TransportFailures, err = m.meter.Int64Counter(
		"sitepulse.transport.failures",
		metric.WithDescription("Transport fetches that failed"),
	)
	if err != nil {
		return err
	}

	m.MessagesDispatched, err = m.meter.Int64Counter(
		"sitepulse.messages.dispatched",
		metric.WithDescription("Protocol messages handled by the daemon"),
	)
	if err != nil {
		return err
	}

	m.ConnectedClients, err = m.meter.Int64Gauge(
		"sitepulse.clients.connected",
		metric.WithDescription("Currently connected foreground clients"),
	)
	if err != nil {
		return err
	}

	m.RefreshCycles, err = m.meter.Int64Counter(
		"sitepulse.refresh.cycles",
		metric.WithDescription("Background refresh cycles completed"),
	)
	if err != nil {
		return err
	}

	m.RefreshDuration, err = m.meter.Float64Histogram(
		"sitepulse.refresh.duration",
		metric.WithDescription("Background refresh cycle duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Handler returns the HTTP handler for Prometheus scrapes.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled {
		return http.NotFoundHandler()
	}
	return promhttp.Handler()
}
