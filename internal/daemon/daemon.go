package daemon

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sololeveling-irl/irl/internal/api"
	"github.com/sololeveling-irl/irl/internal/app/challenge"
	"github.com/sololeveling-irl/irl/internal/app/engagement"
	"github.com/sololeveling-irl/irl/internal/app/schedule"
	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/health"
	_ "github.com/sololeveling-irl/irl/internal/infra/metrics" // Register Prometheus metrics
	"github.com/sololeveling-irl/irl/internal/infra/redisbus"
	"github.com/sololeveling-irl/irl/internal/infra/sqlite"
	"github.com/sololeveling-irl/irl/internal/logger"
)

// DailyInterval is how often the daemon re-runs the daily evaluation for
// every known player. Evaluation is idempotent per calendar day.
const DailyInterval = time.Hour

// RetryInterval is how often failed Redis publishes are retried.
const RetryInterval = 5 * time.Second

// Daemon is the IRL runtime. It wires together all services.
type Daemon struct {
	Config Config
	Log    *logger.Logger
	DB     *sqlite.DB
	Clock  domain.Clock
	Bus    *redisbus.Bus
	Auth   *api.Authenticator
	Server *api.Server
	Health *health.Checker

	Players       *engagement.PlayerService
	Achievements  *engagement.AchievementService
	Titles        *engagement.TitleService
	Notifications *engagement.NotificationService
	Planner       *schedule.Planner
	Challenges    *challenge.Service

	cancel context.CancelFunc
}

// New creates and initializes a Daemon from $IRL_HOME/config.toml.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	dir := cfg.Storage.Dir
	if dir == "" {
		dir = irlHome()
	}
	db, err := sqlite.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	d := &Daemon{
		Config: cfg,
		Log:    log,
		DB:     db,
		Clock:  domain.LocalClock{Loc: loc},
	}

	// Redis fan-out is optional: a dead broker only loses live pushes.
	var pubs []engagement.Publisher
	if cfg.Redis.Enabled {
		bus, err := redisbus.New(cfg.Redis.Addr, cfg.Redis.Channel, log)
		if err != nil {
			log.Warn("redis unavailable, notifications stay local", "addr", cfg.Redis.Addr, "error", err)
		} else {
			d.Bus = bus
			pubs = append(pubs, bus)
		}
	}

	// ─── Engagement ────────────────────────────────────────────────────

	d.Notifications = engagement.NewNotificationService(db, d.Clock, log, engagement.QuietHours{
		Start: cfg.Game.QuietStart,
		End:   cfg.Game.QuietEnd,
	}, pubs...)
	d.Achievements = engagement.NewAchievementService(db)
	d.Titles = engagement.NewTitleService(db)
	d.Players = engagement.NewPlayerService(engagement.PlayerServiceConfig{
		Store:        db,
		Clock:        d.Clock,
		Logger:       log,
		Achievements: d.Achievements,
		Titles:       d.Titles,
		Notifier:     d.Notifications,
	})

	// ─── Scheduling and challenges ─────────────────────────────────────

	d.Planner = schedule.NewPlanner(db, d.Players, log, rand.New(rand.NewSource(time.Now().UnixNano())))
	d.Challenges = challenge.NewService(challenge.Config{
		DB:       db,
		Players:  d.Players,
		Titles:   d.Titles,
		Notifier: d.Notifications,
		Logger:   log,
	})

	// ─── Health ────────────────────────────────────────────────────────

	d.Health = health.NewChecker(db, dir, log)
	if d.Bus != nil {
		d.Health.Add(health.Check{Name: "redis", CheckFn: d.Bus.Ping})
	}

	// ─── API ───────────────────────────────────────────────────────────

	d.Auth = api.NewAuthenticator(cfg.Auth.JWTSecret)
	if d.Auth.HeaderMode() {
		log.Warn("auth.jwt_secret is empty, trusting X-User-ID headers")
	}
	d.Server = api.NewServer(api.Services{
		Players:         d.Players,
		Achievements:    d.Achievements,
		Titles:          d.Titles,
		Notifications:   d.Notifications,
		Planner:         d.Planner,
		Challenges:      d.Challenges,
		Health:          d.Health,
		SuggestionCount: cfg.Game.SuggestionCount,
	}, d.Auth, log)
	if len(cfg.API.CORSOrigins) > 0 {
		d.Server.SetCORSOrigins(cfg.API.CORSOrigins)
	}
	if cfg.Telemetry.Prometheus {
		d.Server.EnableMetrics()
	}

	return d, nil
}

// RunDailyAll runs the daily evaluation for every stored player and returns
// how many tasks were generated in total. One player's failure does not stop
// the rest.
func (d *Daemon) RunDailyAll(ctx context.Context) (int, error) {
	ids, err := d.DB.PlayerIDs()
	if err != nil {
		return 0, fmt.Errorf("list players: %w", err)
	}
	total := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		added, err := d.Planner.RunDaily(ctx, id)
		if err != nil {
			d.Log.Warn("daily evaluation failed", "user_id", id, "error", err)
			continue
		}
		total += len(added)
	}
	return total, nil
}

func (d *Daemon) dailyLoop(ctx context.Context) {
	ticker := time.NewTicker(DailyInterval)
	defer ticker.Stop()
	for {
		if n, err := d.RunDailyAll(ctx); err != nil && ctx.Err() == nil {
			d.Log.Warn("daily sweep failed", "error", err)
		} else if n > 0 {
			d.Log.Info("daily sweep generated tasks", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)
	go d.dailyLoop(ctx)
	if d.Bus != nil {
		go d.Notifications.RunRetries(ctx, RetryInterval)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	d.Log.Info("serving", "addr", "http://"+addr, "header_auth", d.Auth.HeaderMode(), "redis", d.Bus != nil)
	if d.Config.Telemetry.Prometheus {
		d.Log.Info("metrics enabled", "url", "http://"+addr+"/metrics")
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Bus != nil {
		_ = d.Bus.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.Log != nil {
		d.Log.Sync()
	}
}
