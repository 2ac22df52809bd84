package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sololeveling-irl/irl/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), nil)
	if len(c.checks) != 2 {
		t.Errorf("checks = %d, want 2", len(c.checks))
	}
}

func TestChecker_RunOnceHealthy(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), nil)
	c.RunOnce(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("Statuses() = %d, want 2", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if c.Overall() != Healthy {
		t.Errorf("Overall() = %d, want %d", c.Overall(), Healthy)
	}
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), nil)
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true before first run (no statuses)")
	}
}

func TestChecker_DataDirMissing(t *testing.T) {
	c := NewChecker(newTestDB(t), filepath.Join(t.TempDir(), "nonexistent"), nil)
	c.RunOnce(context.Background())

	if c.IsHealthy() {
		t.Error("missing data dir should be unhealthy")
	}
}

func TestChecker_DataDirIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(path, []byte("not a dir"), 0644); err != nil {
		t.Fatal(err)
	}
	c := NewChecker(newTestDB(t), path, nil)
	c.RunOnce(context.Background())

	for _, s := range c.Statuses() {
		if s.Name == "data_dir" && s.Healthy {
			t.Error("data_dir should fail when path is a file")
		}
	}
}

func TestChecker_ProbeFileRemoved(t *testing.T) {
	dir := t.TempDir()
	c := NewChecker(newTestDB(t), dir, nil)
	c.RunOnce(context.Background())

	if _, err := os.Stat(filepath.Join(dir, ".health-probe")); !os.IsNotExist(err) {
		t.Error("probe file should be removed after the check")
	}
}

func TestChecker_NonCriticalFailureDegrades(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), nil)
	c.Add(Check{
		Name: "redis",
		CheckFn: func(ctx context.Context) error {
			return errors.New("connection refused")
		},
	})
	c.RunOnce(context.Background())

	if c.Overall() != Degraded {
		t.Errorf("Overall() = %d, want Degraded", c.Overall())
	}
	if !c.IsHealthy() {
		t.Error("a degraded service is still healthy")
	}
	statuses := c.Statuses()
	last := statuses[len(statuses)-1]
	if last.Healthy || last.Error == "" {
		t.Errorf("redis status = %+v, want failure with message", last)
	}
}

func TestChecker_CriticalFailure(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), nil)
	c.Add(Check{
		Name:     "always_fail",
		Critical: true,
		CheckFn: func(ctx context.Context) error {
			return os.ErrPermission
		},
	})
	c.RunOnce(context.Background())

	if c.Overall() != Unhealthy {
		t.Errorf("Overall() = %d, want Unhealthy", c.Overall())
	}
}

func TestChecker_StatusesCopy(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), nil)
	c.RunOnce(context.Background())

	s1 := c.Statuses()
	s2 := c.Statuses()

	if len(s1) > 0 {
		s1[0].Healthy = false
		if !s2[0].Healthy {
			t.Error("Statuses() should return a copy, not a reference")
		}
	}
}
