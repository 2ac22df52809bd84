package engagement

import (
	"github.com/sololeveling-irl/irl/internal/domain"
)

// ─── Level curve ────────────────────────────────────────────────────────────
// Each stat levels independently. The points needed for the next level grow
// in 10-level tiers and stop growing after level 100.

// levelTiers[i] is the cost of one level for levels 10*i+1 .. 10*i+10.
var levelTiers = [...]int{10, 15, 25, 40, 60, 85, 115, 150, 190, 250}

// PointsToNextLevel returns the points a stat at level needs to gain a level.
// Levels beyond the table clamp to the last tier.
func PointsToNextLevel(level int) int {
	if level < 1 {
		level = 1
	}
	tier := (level - 1) / 10
	if tier >= len(levelTiers) {
		tier = len(levelTiers) - 1
	}
	return levelTiers[tier]
}

// ─── Ranks ──────────────────────────────────────────────────────────────────

// rankNames covers levels 0-9, 10-19, ... 90-99.
var rankNames = [...]string{
	"E-Rank Hunter",
	"D-Rank Hunter",
	"C-Rank Hunter",
	"B-Rank Hunter",
	"A-Rank Hunter",
	"S-Rank Hunter",
	"National Level Hunter",
	"Shadow Sovereign",
	"Monarch",
	"Ruler",
}

// RankTranscendent is the open-ended rank for level 100 and above.
const RankTranscendent = "Transcendent"

// RankForLevel returns the rank name for an overall level.
func RankForLevel(level int) string {
	if level >= 100 {
		return RankTranscendent
	}
	if level < 0 {
		level = 0
	}
	return rankNames[level/10]
}

// ─── Streak bonus ───────────────────────────────────────────────────────────

// MinBonusStreak is the streak length at which completions start earning a bonus.
const MinBonusStreak = 3

// StreakBonusFraction returns the bonus share of base points for a streak length.
func StreakBonusFraction(days int) float64 {
	switch {
	case days >= 31:
		return 0.30
	case days >= 15:
		return 0.25
	case days >= 8:
		return 0.20
	case days >= 3:
		return 0.15
	default:
		return 0
	}
}

// ─── Task values ────────────────────────────────────────────────────────────

// BasePoints returns the fixed point value of a task type. Unknown types earn 0.
func BasePoints(t domain.TaskType) int {
	switch t {
	case domain.TaskSimple:
		return 1
	case domain.TaskRegular:
		return 2
	case domain.TaskChallenge:
		return 3
	case domain.TaskMajor:
		return 5
	case domain.TaskMilestone:
		return 8
	default:
		return 0
	}
}

// OverallLevel is the truncated mean level of the six stats.
// Missing stats count as level 1.
func OverallLevel(stats map[domain.StatID]domain.StatProgress) int {
	sum := 0
	for _, id := range domain.AllStats {
		lvl := 1
		if sp, ok := stats[id]; ok {
			lvl = sp.Level
		}
		sum += lvl
	}
	return sum / len(domain.AllStats)
}

// TotalLifetimePoints sums lifetime points over all stats.
func TotalLifetimePoints(stats map[domain.StatID]domain.StatProgress) int {
	total := 0
	for _, sp := range stats {
		total += sp.LifetimePoints
	}
	return total
}

// ProgressPct returns progress toward the next level for a stat (0.0–100.0).
func ProgressPct(sp domain.StatProgress) float64 {
	need := PointsToNextLevel(sp.Level)
	pct := float64(sp.Points) / float64(need) * 100.0
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// ─── Summary ────────────────────────────────────────────────────────────────

// StatSummary is the read model of one stat.
type StatSummary struct {
	Stat           domain.StatID `json:"stat"`
	Name           string        `json:"name"`
	Level          int           `json:"level"`
	Points         int           `json:"points"`
	PointsToNext   int           `json:"points_to_next"`
	ProgressPct    float64       `json:"progress_pct"`
	LifetimePoints int           `json:"lifetime_points"`
}

// PlayerSummary is the read model shown by the CLI status and the API.
type PlayerSummary struct {
	PlayerName     string        `json:"player_name"`
	OverallLevel   int           `json:"overall_level"`
	Rank           string        `json:"rank"`
	Streak         domain.Streak `json:"streak"`
	BonusPct       int           `json:"bonus_pct"`
	PendingTasks   int           `json:"pending_tasks"`
	CompletedTasks int           `json:"completed_tasks"`
	LifetimePoints int           `json:"lifetime_points"`
	Stats          []StatSummary `json:"stats"`
}

// Summarize builds the read model for a player state as of today.
// A streak that has already lapsed reads as zero and carries no bonus.
func Summarize(state domain.PlayerState, today domain.Date) PlayerSummary {
	overall := OverallLevel(state.Stats)
	streak := state.Streak
	streak.Current = EffectiveStreak(state.Streak, today)
	bonus := 0
	if streak.Current >= MinBonusStreak {
		bonus = int(StreakBonusFraction(streak.Current)*100 + 0.5)
	}
	sum := PlayerSummary{
		PlayerName:     state.PlayerName,
		OverallLevel:   overall,
		Rank:           RankForLevel(overall),
		Streak:         streak,
		BonusPct:       bonus,
		PendingTasks:   len(state.Tasks),
		CompletedTasks: len(state.CompletedTasks),
		LifetimePoints: TotalLifetimePoints(state.Stats),
	}
	for _, id := range domain.AllStats {
		sp := state.Stats[id]
		if sp.Level < 1 {
			sp.Level = 1
		}
		sum.Stats = append(sum.Stats, StatSummary{
			Stat:           id,
			Name:           id.DisplayName(),
			Level:          sp.Level,
			Points:         sp.Points,
			PointsToNext:   PointsToNextLevel(sp.Level),
			ProgressPct:    ProgressPct(sp),
			LifetimePoints: sp.LifetimePoints,
		})
	}
	return sum
}
