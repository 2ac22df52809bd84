package engagement

import (
	"github.com/sololeveling-irl/irl/internal/domain"
)

// RequirementMet evaluates a requirement against a player state.
// Challenge-win requirements are granted by the challenge engine and never
// evaluate to true here.
func RequirementMet(req domain.Requirement, state domain.PlayerState) bool {
	switch req.Kind {
	case domain.ReqStreak:
		return state.Streak.Current >= req.Streak
	case domain.ReqOverallLevel:
		return OverallLevel(state.Stats) >= req.Level
	case domain.ReqTaskCount:
		return len(state.CompletedTasks) >= req.Count
	case domain.ReqStatLevel:
		return state.StatLevel(req.Stat) >= req.Level
	case domain.ReqMultiStatAll:
		if len(req.Stats) == 0 {
			return false
		}
		for _, sl := range req.Stats {
			if state.StatLevel(sl.Stat) < sl.Level {
				return false
			}
		}
		return true
	case domain.ReqAllStats:
		return minStatLevel(state) >= req.Level
	case domain.ReqDaysActive:
		return DaysActive(state) >= req.Days
	case domain.ReqLifetimePoints:
		return TotalLifetimePoints(state.Stats) >= req.Points
	case domain.ReqChallengeWin:
		return false
	default:
		return false
	}
}

// RequirementProgress returns {current, target} for display as of today.
// Current is clamped to target; a lapsed streak counts as zero.
func RequirementProgress(req domain.Requirement, state domain.PlayerState, today domain.Date) domain.Progress {
	var cur, target int
	switch req.Kind {
	case domain.ReqStreak:
		cur, target = EffectiveStreak(state.Streak, today), req.Streak
	case domain.ReqOverallLevel:
		cur, target = OverallLevel(state.Stats), req.Level
	case domain.ReqTaskCount:
		cur, target = len(state.CompletedTasks), req.Count
	case domain.ReqStatLevel:
		cur, target = state.StatLevel(req.Stat), req.Level
	case domain.ReqMultiStatAll:
		target = len(req.Stats)
		for _, sl := range req.Stats {
			if state.StatLevel(sl.Stat) >= sl.Level {
				cur++
			}
		}
	case domain.ReqAllStats:
		cur, target = minStatLevel(state), req.Level
	case domain.ReqDaysActive:
		cur, target = DaysActive(state), req.Days
	case domain.ReqLifetimePoints:
		cur, target = TotalLifetimePoints(state.Stats), req.Points
	default:
		cur, target = 0, 1
	}
	if cur > target {
		cur = target
	}
	if cur < 0 {
		cur = 0
	}
	return domain.Progress{Current: cur, Target: target}
}

func minStatLevel(state domain.PlayerState) int {
	lowest := 0
	for i, id := range domain.AllStats {
		lvl := state.StatLevel(id)
		if i == 0 || lvl < lowest {
			lowest = lvl
		}
	}
	return lowest
}
