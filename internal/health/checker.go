// Package health runs periodic liveness checks over the service's
// dependencies and exposes the latest results to /health.
package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sololeveling-irl/irl/internal/infra/metrics"
	"github.com/sololeveling-irl/irl/internal/infra/sqlite"
	"github.com/sololeveling-irl/irl/internal/logger"
)

// Check is a named probe.
type Check struct {
	Name string
	// Critical checks make the service unhealthy; others only degrade it.
	Critical bool
	CheckFn  func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Critical  bool      `json:"critical"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Overall levels, matching the health_status gauge.
const (
	Unhealthy = 0
	Degraded  = 1
	Healthy   = 2
)

// Checker runs the checks on an interval and keeps the latest statuses.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
	log      *logger.Logger
}

// NewChecker creates a checker with the sqlite and data directory probes.
func NewChecker(db *sqlite.DB, dataDir string, log *logger.Logger) *Checker {
	if log == nil {
		log = logger.Nop()
	}
	return &Checker{
		interval: 60 * time.Second,
		log:      log,
		checks: []Check{
			{
				Name:     "sqlite",
				Critical: true,
				CheckFn: func(ctx context.Context) error {
					return db.Ping()
				},
			},
			{
				Name:     "data_dir",
				Critical: true,
				CheckFn: func(ctx context.Context) error {
					return checkWritable(dataDir)
				},
			},
		},
	}
}

// Add registers an extra check. Not safe once Run has started.
func (c *Checker) Add(check Check) {
	c.checks = append(c.checks, check)
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every check now and stores the results.
func (c *Checker) RunOnce(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			Critical:  check.Critical,
			CheckedAt: time.Now(),
			Healthy:   true,
		}
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
			c.log.Warn("health check failed", "check", check.Name, "error", err)
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
	metrics.HealthStatus.Set(float64(c.Overall()))
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// Overall folds the latest statuses into Healthy, Degraded or Unhealthy.
// Before the first run it reports Healthy.
func (c *Checker) Overall() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	level := Healthy
	for _, s := range c.statuses {
		if s.Healthy {
			continue
		}
		if s.Critical {
			return Unhealthy
		}
		level = Degraded
	}
	return level
}

// IsHealthy returns true if no critical check is failing.
func (c *Checker) IsHealthy() bool {
	return c.Overall() != Unhealthy
}

// ─── Check Implementations ──────────────────────────────────────────────────

// checkWritable creates and removes a probe file in dir.
func checkWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("check data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	probe := filepath.Join(dir, ".health-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("data dir not writable: %w", err)
	}
	return os.Remove(probe)
}
