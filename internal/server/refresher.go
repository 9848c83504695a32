package server

import (
	"context"
	"fmt"
	"time"

	"github.com/sitepulse/sitepulse/internal/analytics"
	"github.com/sitepulse/sitepulse/internal/platform/observability"
	"github.com/sitepulse/sitepulse/internal/platform/worker"
	"github.com/sitepulse/sitepulse/internal/settings"
)

// Refresher regenerates traffic and analytics payloads for every tracked
// domain on the configured interval, warming the cache and letting the
// bus fan the fresh data out. REFRESH_DATA kicks an immediate cycle.
type Refresher struct {
	coord    *analytics.Coordinator
	settings *settings.Manager
	logger   *observability.Logger
	metrics  *observability.Metrics
	pool     *worker.Pool

	kick chan struct{}
}

// RefresherConfig wires a Refresher.
type RefresherConfig struct {
	Coordinator *analytics.Coordinator
	Settings    *settings.Manager
	Logger      *observability.Logger
	Metrics     *observability.Metrics
	Workers     int
}

// NewRefresher creates a Refresher. Its worker pool is bound to ctx.
func NewRefresher(ctx context.Context, cfg RefresherConfig) *Refresher {
	return &Refresher{
		coord:    cfg.Coordinator,
		settings: cfg.Settings,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		pool:     worker.NewPool(ctx, cfg.Workers, 2*cfg.Workers),
		kick:     make(chan struct{}, 1),
	}
}

// Kick schedules an immediate refresh cycle. Non-blocking; a kick while
// one is already pending coalesces.
func (r *Refresher) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Run loops until ctx is cancelled. The interval is re-read from settings
// after every cycle, so a settings change takes effect on the next
// scheduling decision rather than retroactively.
func (r *Refresher) Run(ctx context.Context) error {
	timer := time.NewTimer(r.settings.RefreshInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		case <-r.kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		r.cycle(ctx)
		timer.Reset(r.settings.RefreshInterval())
	}
}

func (r *Refresher) cycle(ctx context.Context) {
	domains := r.settings.Current().TrackedDomains
	if len(domains) == 0 {
		return
	}

	start := time.Now()
	jobs := make([]worker.Job, 0, 2*len(domains))
	for _, domain := range domains {
		for _, kind := range []analytics.Kind{analytics.KindTraffic, analytics.KindAnalytics} {
			req := analytics.Request{
				Kind:   kind,
				Params: map[string]string{analytics.ParamDomain: domain},
			}
			jobs = append(jobs, worker.Job{
				ID: fmt.Sprintf("%s/%s", kind, domain),
				Execute: func(jobCtx context.Context) error {
					_, err := r.coord.Refresh(jobCtx, req)
					return err
				},
			})
		}
	}

	failures := 0
	for _, res := range r.pool.RunAll(jobs) {
		if res.Err != nil {
			failures++
			r.logger.LogWarn(ctx, "refresh job failed", "job", res.JobID, "error", res.Err)
		}
	}

	elapsed := time.Since(start)
	if r.metrics != nil {
		r.metrics.RefreshCycles.Add(ctx, 1)
		r.metrics.RefreshDuration.Record(ctx, float64(elapsed.Milliseconds()))
	}
	r.logger.LogDebug(ctx, "refresh cycle complete",
		"domains", len(domains), "failures", failures, "elapsed", elapsed.String())
}

// Close stops the worker pool.
func (r *Refresher) Close() {
	r.pool.Close()
}
