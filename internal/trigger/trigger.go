// Package trigger runs a sync step on a fixed cadence. The cadence is the
// retry policy: a failed tick is simply followed by the next one.
package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is the cadence between location refresh ticks.
const DefaultInterval = 15 * time.Minute

// Func is one unit of periodic work. It must honor ctx cancellation and
// never panic; outcomes are reported through its own logging.
type Func func(ctx context.Context)

// Config holds settings for a Periodic runner.
type Config struct {
	// Interval between ticks. Defaults to DefaultInterval.
	Interval time.Duration

	// RunOnStart fires the function once immediately, before the first tick.
	RunOnStart bool

	Logger zerolog.Logger
}

// Metrics tracks runner statistics for the status endpoint.
type Metrics struct {
	mu sync.RWMutex

	Ticks           int64
	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// Periodic invokes a Func on every tick until its context is cancelled.
type Periodic struct {
	interval   time.Duration
	runOnStart bool
	logger     zerolog.Logger
	metrics    *Metrics
}

// New creates a Periodic runner.
func New(cfg Config) *Periodic {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Periodic{
		interval:   interval,
		runOnStart: cfg.RunOnStart,
		logger:     cfg.Logger,
		metrics:    &Metrics{},
	}
}

// Interval returns the configured tick cadence.
func (p *Periodic) Interval() time.Duration {
	return p.interval
}

// Run blocks, invoking fn on each tick, until ctx is cancelled.
func (p *Periodic) Run(ctx context.Context, fn Func) {
	p.logger.Info().Dur("interval", p.interval).Msg("periodic trigger started")

	if p.runOnStart {
		p.invoke(ctx, fn)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("periodic trigger stopped")
			return
		case <-ticker.C:
			p.invoke(ctx, fn)
		}
	}
}

func (p *Periodic) invoke(ctx context.Context, fn Func) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	fn(ctx)
	elapsed := time.Since(start)

	p.metrics.mu.Lock()
	p.metrics.Ticks++
	p.metrics.LastRunAt = start
	p.metrics.LastRunDuration = elapsed
	p.metrics.mu.Unlock()

	p.logger.Debug().Dur("duration", elapsed).Msg("tick completed")
}

// MetricsSnapshot returns current runner statistics as a map.
func (p *Periodic) MetricsSnapshot() map[string]interface{} {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()

	return map[string]interface{}{
		"ticks":             p.metrics.Ticks,
		"last_run_at":       p.metrics.LastRunAt,
		"last_run_duration": p.metrics.LastRunDuration.String(),
		"interval":          p.interval.String(),
	}
}
