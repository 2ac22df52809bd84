// Package sqlite provides SQLite-based persistent storage for the IRL service.
// Player state is kept as one JSON document per user; rules, schedules,
// unlocks, titles, notifications and challenges get their own tables.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Player documents
		`CREATE TABLE IF NOT EXISTS players (
			user_id      TEXT PRIMARY KEY,
			player_name  TEXT NOT NULL,
			state        TEXT NOT NULL,
			updated_at   INTEGER NOT NULL
		)`,

		// ─── Recurrence & scheduling ───────────────────────────────────

		`CREATE TABLE IF NOT EXISTS recurring_rules (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			name           TEXT NOT NULL,
			stat           TEXT NOT NULL,
			type           TEXT NOT NULL,
			frequency      TEXT NOT NULL,
			day_of_week    INTEGER NOT NULL DEFAULT 0,
			days_of_week   TEXT NOT NULL DEFAULT '[]',
			last_generated TEXT NOT NULL DEFAULT '',
			created_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_user ON recurring_rules(user_id)`,

		`CREATE TABLE IF NOT EXISTS scheduled_tasks (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			name           TEXT NOT NULL,
			stat           TEXT NOT NULL,
			type           TEXT NOT NULL,
			scheduled_date TEXT NOT NULL,
			created_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scheduled_user_date ON scheduled_tasks(user_id, scheduled_date)`,

		`CREATE TABLE IF NOT EXISTS task_templates (
			id       TEXT PRIMARY KEY,
			user_id  TEXT NOT NULL,
			name     TEXT NOT NULL,
			stat     TEXT NOT NULL,
			type     TEXT NOT NULL,
			category TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_user ON task_templates(user_id)`,

		// ─── Achievements & titles ─────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS achievements (
			user_id     TEXT NOT NULL,
			id          TEXT NOT NULL,
			unlocked_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, id)
		)`,

		`CREATE TABLE IF NOT EXISTS achievement_notifications (
			id             TEXT NOT NULL,
			user_id        TEXT NOT NULL,
			achievement_id TEXT NOT NULL,
			read           BOOLEAN DEFAULT 0,
			created_at     INTEGER NOT NULL,
			PRIMARY KEY (user_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ach_notif_user ON achievement_notifications(user_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS titles (
			user_id   TEXT NOT NULL,
			title_id  TEXT NOT NULL,
			earned_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, title_id)
		)`,

		`CREATE TABLE IF NOT EXISTS selected_titles (
			user_id  TEXT PRIMARY KEY,
			title_id TEXT NOT NULL
		)`,

		// Delivery inbox
		`CREATE TABLE IF NOT EXISTS notifications (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			message    TEXT NOT NULL,
			ref_id     TEXT,
			created_at INTEGER NOT NULL,
			shown      BOOLEAN DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notif_user ON notifications(user_id, created_at)`,

		// ─── Challenges ────────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS challenges (
			id           TEXT PRIMARY KEY,
			type         TEXT NOT NULL,
			status       TEXT NOT NULL,
			creator_id   TEXT NOT NULL,
			recipient_id TEXT NOT NULL,
			params       TEXT NOT NULL,
			progress     TEXT NOT NULL,
			winner       TEXT,
			title        TEXT NOT NULL,
			title_id     TEXT NOT NULL,
			created_at   INTEGER NOT NULL,
			started_at   INTEGER,
			completed_at INTEGER,
			declined_at  INTEGER,
			canceled_at  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_creator ON challenges(creator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_recipient ON challenges(recipient_id)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullableUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func fromNullableUnix(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0)
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
