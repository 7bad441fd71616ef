// Package monitor provides background health monitoring for conduits.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/firefly-engineering/conduit-console/internal/audit"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/health"
	"github.com/firefly-engineering/conduit-console/internal/logging"
	"github.com/firefly-engineering/conduit-console/internal/runtime"
)

// DefaultConcurrency bounds the number of conduits checked at once.
const DefaultConcurrency = 8

// Monitor periodically checks the health of all conduits.
type Monitor struct {
	interval    time.Duration
	runtimes    *runtime.Set
	paths       *config.Paths
	autoRestart bool
	auditLog    *audit.Logger
	checker     *health.Checker
	concurrency int
	onResults   func([]*health.CheckResult)

	mu   sync.Mutex
	last map[string]health.Status
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithAutoRestart enables automatic restart of unhealthy conduits.
func WithAutoRestart(enabled bool) Option {
	return func(m *Monitor) {
		m.autoRestart = enabled
	}
}

// WithAuditLogger sets the audit logger for recording health events.
func WithAuditLogger(logger *audit.Logger) Option {
	return func(m *Monitor) {
		m.auditLog = logger
	}
}

// WithChecker replaces the health checker.
func WithChecker(c *health.Checker) Option {
	return func(m *Monitor) {
		m.checker = c
	}
}

// WithConcurrency bounds how many conduits are checked in parallel.
func WithConcurrency(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithResultHandler registers a callback invoked after every round.
func WithResultHandler(fn func([]*health.CheckResult)) Option {
	return func(m *Monitor) {
		m.onResults = fn
	}
}

// New creates a new Monitor.
func New(interval time.Duration, runtimes *runtime.Set, paths *config.Paths, opts ...Option) *Monitor {
	m := &Monitor{
		interval:    interval,
		runtimes:    runtimes,
		paths:       paths,
		checker:     &health.Checker{},
		concurrency: DefaultConcurrency,
		last:        make(map[string]health.Status),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the monitoring loop. It blocks until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	logging.Debug("starting health monitor", "interval", m.interval, "autoRestart", m.autoRestart)

	// Run an immediate check, then loop on interval.
	m.round(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("health monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			m.round(ctx)
		}
	}
}

func (m *Monitor) round(ctx context.Context) {
	results, err := m.CheckAll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn("health check round failed", "error", err)
		}
		return
	}
	if m.onResults != nil {
		m.onResults(results)
	}
}

// CheckAll checks every known conduit concurrently and returns the results
// in name order. Per-conduit failures are reported in the results; the
// error is only set when the conduit list cannot be read or ctx ends.
func (m *Monitor) CheckAll(ctx context.Context) ([]*health.CheckResult, error) {
	conduits, err := config.ListConduits(m.paths.ConduitsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list conduits: %w", err)
	}

	results := make([]*health.CheckResult, len(conduits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, c := range conduits {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = m.checkOne(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (m *Monitor) checkOne(ctx context.Context, c *config.Conduit) *health.CheckResult {
	rt, err := m.runtimes.ForConduit(c)
	if err != nil {
		rt = nil
	}

	result := m.checker.Check(ctx, c, rt)
	if err != nil {
		result.Error = err.Error()
	}
	m.recordHealth(c, result)

	if m.autoRestart && rt != nil && result.NeedsRestart() {
		m.restart(ctx, c, rt, result)
	}
	return result
}

// recordHealth writes a health event when a conduit's status changes.
func (m *Monitor) recordHealth(c *config.Conduit, result *health.CheckResult) {
	m.mu.Lock()
	prev, seen := m.last[c.Name]
	m.last[c.Name] = result.Status
	m.mu.Unlock()

	if seen && prev == result.Status {
		return
	}
	if seen {
		logging.Info("conduit health changed", "conduit", c.Name, "from", prev, "to", result.Status)
	}
	if m.auditLog == nil {
		return
	}

	details := string(result.Status)
	if result.Error != "" {
		details += ": " + result.Error
	}
	_ = m.auditLog.Log(audit.Event{
		Type:       audit.EventHealth,
		Conduit:    c.Name,
		InstanceID: c.InstanceID,
		Details:    details,
	})
}

func (m *Monitor) restart(ctx context.Context, c *config.Conduit, rt runtime.Runtime, result *health.CheckResult) {
	logging.UserInfo("Auto-restarting conduit %s (status: %s)", c.Name, result.Status)

	err := func() error {
		if result.Running {
			if err := rt.Stop(ctx, c.Name); err != nil {
				return err
			}
		}
		return rt.Start(ctx, c.Name)
	}()

	if err != nil {
		logging.Warn("auto-restart failed", "conduit", c.Name, "error", err)
		if m.auditLog != nil {
			_ = m.auditLog.LogEvent(audit.EventError, c.Name, "auto-restart failed: "+err.Error())
		}
		return
	}
	if m.auditLog != nil {
		_ = m.auditLog.Log(audit.Event{
			Type:       audit.EventRestart,
			Conduit:    c.Name,
			InstanceID: c.InstanceID,
			Details:    "auto-restart (" + string(result.Status) + ")",
		})
	}
}
