// Package engagement implements the progression rules engine:
// level curve, streaks, task completion, achievements and titles.
// Engine functions are pure over an explicit PlayerState and "now";
// the services in this package add persistence and delivery around them.
package engagement

import (
	"github.com/sololeveling-irl/irl/internal/domain"
)

// AdvanceStreak applies one completion made on today to the streak.
//
//	never completed      → 1
//	last was yesterday   → +1
//	last was today       → unchanged
//	anything else        → reset to 1
//
// LastCompletionDate is set to today in every branch.
func AdvanceStreak(s domain.Streak, today domain.Date) domain.Streak {
	switch {
	case s.LastCompletionDate.IsZero():
		s.Current = 1
	case s.LastCompletionDate == today.AddDays(-1):
		s.Current++
	case s.LastCompletionDate == today:
		// Same day: already counted.
	default:
		s.Current = 1
	}
	s.LastCompletionDate = today
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	return s
}

// EffectiveStreak is the streak as it would read today without a new completion:
// a streak whose last day is before yesterday has already lapsed.
func EffectiveStreak(s domain.Streak, today domain.Date) int {
	if s.LastCompletionDate.IsZero() {
		return 0
	}
	if s.LastCompletionDate == today || s.LastCompletionDate == today.AddDays(-1) {
		return s.Current
	}
	return 0
}

// StreakBonus returns the bonus points for a base value at a streak length.
// No bonus is applied below MinBonusStreak regardless of the tier table.
func StreakBonus(base, streak int) int {
	if streak < MinBonusStreak {
		return 0
	}
	return int(float64(base) * StreakBonusFraction(streak))
}
