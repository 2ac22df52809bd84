// Package metrics provides Prometheus metrics for the IRL service:
// completions, points, level-ups, unlocks, scheduling, challenges and HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Progression ────────────────────────────────────────────────────────────

// TasksCompleted tracks completed tasks by task type.
var TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "irl",
	Name:      "tasks_completed_total",
	Help:      "Total completed tasks.",
}, []string{"type"})

// TasksAdded tracks tasks added to pending lists, by origin (manual, recurring, scheduled).
var TasksAdded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "irl",
	Name:      "tasks_added_total",
	Help:      "Total tasks added to pending lists.",
}, []string{"origin"})

// PointsAwarded tracks points granted per stat, base and bonus separately.
var PointsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "irl",
	Name:      "points_awarded_total",
	Help:      "Total points awarded.",
}, []string{"stat", "kind"})

// LevelUps tracks stat level-ups.
var LevelUps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "irl",
	Name:      "level_ups_total",
	Help:      "Total stat level-ups.",
}, []string{"stat"})

// GameResets counts full progression resets.
var GameResets = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "irl",
	Name:      "game_resets_total",
	Help:      "Total player state resets.",
})

// ActivePlayers is the number of player states held in memory.
var ActivePlayers = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "irl",
	Name:      "players_cached",
	Help:      "Player states held in the service cache.",
})

// StoreErrors counts failed persistence writes. The in-memory state stays authoritative.
var StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "irl",
	Name:      "store_errors_total",
	Help:      "Total persistence failures.",
}, []string{"op"})

// ─── Engagement ─────────────────────────────────────────────────────────────

// AchievementsUnlocked tracks unlocks by category.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "irl",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievements unlocked.",
}, []string{"category"})

// TitlesGranted tracks earned titles by category.
var TitlesGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "irl",
	Name:      "titles_granted_total",
	Help:      "Total titles granted.",
}, []string{"category"})

// NotificationsSent tracks delivered notifications by type.
var NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "irl",
	Name:      "notifications_sent_total",
	Help:      "Total notifications delivered.",
}, []string{"type"})

// NotificationRetries tracks publish retries by outcome
// (scheduled, delivered, abandoned).
var NotificationRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "irl",
	Name:      "notification_publish_retries_total",
	Help:      "Total notification publish retries by outcome.",
}, []string{"outcome"})

// ─── Scheduling ─────────────────────────────────────────────────────────────

// RecurringGenerated tracks tasks materialized from rules and schedules.
var RecurringGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "irl",
	Name:      "scheduled_tasks_generated_total",
	Help:      "Total tasks materialized by the daily evaluation.",
}, []string{"source"})

// ─── Challenges ─────────────────────────────────────────────────────────────

// ChallengeTransitions tracks challenge state changes.
var ChallengeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "irl",
	Name:      "challenge_transitions_total",
	Help:      "Total challenge state transitions.",
}, []string{"type", "status"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// APIRequestDuration tracks API latency by route pattern and status.
var APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "irl",
	Name:      "api_request_duration_seconds",
	Help:      "API request duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
}, []string{"route", "status"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthStatus reports overall health (0=unhealthy, 1=degraded, 2=healthy).
var HealthStatus = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "irl",
	Name:      "health_status",
	Help:      "Overall health status (0=unhealthy, 1=degraded, 2=healthy).",
})
