package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestProgressionCounters(t *testing.T) {
	TasksCompleted.WithLabelValues("REGULAR").Inc()
	PointsAwarded.WithLabelValues("strength", "base").Add(2)
	LevelUps.WithLabelValues("strength").Inc()

	names := gatheredNames(t)
	for _, want := range []string{
		"irl_tasks_completed_total",
		"irl_points_awarded_total",
		"irl_level_ups_total",
	} {
		if !names[want] {
			t.Errorf("%s not found", want)
		}
	}
}

func TestPointsAwarded_Accumulates(t *testing.T) {
	before := testutil.ToFloat64(PointsAwarded.WithLabelValues("linguist", "bonus"))
	PointsAwarded.WithLabelValues("linguist", "bonus").Add(3)
	after := testutil.ToFloat64(PointsAwarded.WithLabelValues("linguist", "bonus"))
	if after-before != 3 {
		t.Errorf("delta = %v, want 3", after-before)
	}
}

func TestEngagementAndChallengeMetrics(t *testing.T) {
	AchievementsUnlocked.WithLabelValues("streaks").Inc()
	TitlesGranted.WithLabelValues("challenge").Inc()
	ChallengeTransitions.WithLabelValues("LEVEL_RACE", "COMPLETED").Inc()
	RecurringGenerated.WithLabelValues("rule").Inc()

	names := gatheredNames(t)
	for _, want := range []string{
		"irl_achievements_unlocked_total",
		"irl_titles_granted_total",
		"irl_challenge_transitions_total",
		"irl_scheduled_tasks_generated_total",
	} {
		if !names[want] {
			t.Errorf("%s not found", want)
		}
	}
}

func TestHealthGauge(t *testing.T) {
	HealthStatus.Set(2)
	if got := testutil.ToFloat64(HealthStatus); got != 2 {
		t.Errorf("HealthStatus = %v, want 2", got)
	}
}

func TestAPIRequestDuration(t *testing.T) {
	APIRequestDuration.WithLabelValues("/api/v1/player", "200").Observe(0.02)
	if !gatheredNames(t)["irl_api_request_duration_seconds"] {
		t.Error("irl_api_request_duration_seconds not found")
	}
}
