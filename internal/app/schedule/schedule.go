// Package schedule implements recurring task rules, one-shot scheduled tasks,
// the calendar queries over them and task suggestions.
//
// The engine functions are pure: they take a Plan and a calendar day and
// return what should happen. Planner adds storage and the player service.
package schedule

import (
	"sort"
	"time"

	"github.com/sololeveling-irl/irl/internal/domain"
)

// Plan is a user's recurring rules and pending scheduled tasks.
type Plan struct {
	Rules     []domain.RecurringRule `json:"rules"`
	Scheduled []domain.ScheduledTask `json:"scheduled"`
}

// Generated is one task materialized by Evaluate.
type Generated struct {
	Name          string          `json:"name"`
	Stat          domain.StatID   `json:"stat"`
	Type          domain.TaskType `json:"type"`
	FromRecurring string          `json:"from_recurring,omitempty"`
	ScheduledID   string          `json:"scheduled_id,omitempty"`
}

// Evaluation is the result of running the daily evaluation.
// Fired lists the scheduled task ids that were materialized and removed.
type Evaluation struct {
	Plan      Plan        `json:"plan"`
	Generated []Generated `json:"generated"`
	Fired     []string    `json:"fired"`
}

// IsDue reports whether a rule should generate a task on today.
//
// WEEKLY rules wait for their weekday the first time; after that they fire
// once at least seven days have passed, so a missed week catches up on the
// next evaluation instead of waiting for the weekday again.
func IsDue(rule domain.RecurringRule, today domain.Date) bool {
	if rule.LastGenerated == today {
		return false
	}
	switch rule.Frequency {
	case domain.FrequencyDaily:
		return true
	case domain.FrequencyWeekly:
		if rule.LastGenerated.IsZero() {
			return today.Weekday() == rule.DayOfWeek
		}
		return today.DaysSince(rule.LastGenerated) >= 7
	case domain.FrequencySpecificDays:
		return hasWeekday(rule.DaysOfWeek, today.Weekday())
	default:
		return false
	}
}

// Matches reports whether a rule's frequency covers the weekday of day.
// Unlike IsDue it ignores LastGenerated; it answers "does this rule show on
// the calendar that day".
func Matches(rule domain.RecurringRule, day domain.Date) bool {
	switch rule.Frequency {
	case domain.FrequencyDaily:
		return true
	case domain.FrequencyWeekly:
		return day.Weekday() == rule.DayOfWeek
	case domain.FrequencySpecificDays:
		return hasWeekday(rule.DaysOfWeek, day.Weekday())
	default:
		return false
	}
}

// IsScheduledDue reports whether a scheduled task fires on today.
// Past-due tasks are still due.
func IsScheduledDue(s domain.ScheduledTask, today domain.Date) bool {
	return s.ScheduledDate <= today
}

// Evaluate runs the daily evaluation for today. Due rules produce a task and
// get LastGenerated = today; due scheduled tasks produce a task and leave the
// plan. Running it again on the returned plan for the same day produces nothing.
func Evaluate(plan Plan, today domain.Date) Evaluation {
	out := Evaluation{
		Plan: Plan{
			Rules:     make([]domain.RecurringRule, 0, len(plan.Rules)),
			Scheduled: make([]domain.ScheduledTask, 0, len(plan.Scheduled)),
		},
	}

	for _, r := range plan.Rules {
		if IsDue(r, today) {
			out.Generated = append(out.Generated, Generated{
				Name:          r.Name,
				Stat:          r.Stat,
				Type:          r.Type,
				FromRecurring: r.ID,
			})
			r.LastGenerated = today
		}
		r.DaysOfWeek = append([]time.Weekday(nil), r.DaysOfWeek...)
		out.Plan.Rules = append(out.Plan.Rules, r)
	}

	for _, s := range plan.Scheduled {
		if IsScheduledDue(s, today) {
			out.Generated = append(out.Generated, Generated{
				Name:        s.Name,
				Stat:        s.Stat,
				Type:        s.Type,
				ScheduledID: s.ID,
			})
			out.Fired = append(out.Fired, s.ID)
			continue
		}
		out.Plan.Scheduled = append(out.Plan.Scheduled, s)
	}
	return out
}

// ─── Calendar ───────────────────────────────────────────────────────────────

// TasksForDate lists what the calendar shows on day: scheduled tasks for that
// date, then rules whose frequency matches its weekday. Nothing is materialized.
func TasksForDate(plan Plan, day domain.Date) []domain.CalendarEntry {
	entries := []domain.CalendarEntry{}
	for _, s := range plan.Scheduled {
		if s.ScheduledDate == day {
			entries = append(entries, domain.CalendarEntry{
				Name: s.Name, Stat: s.Stat, Type: s.Type, SourceID: s.ID,
			})
		}
	}
	for _, r := range plan.Rules {
		if Matches(r, day) {
			entries = append(entries, domain.CalendarEntry{
				Name: r.Name, Stat: r.Stat, Type: r.Type, Recurring: true, SourceID: r.ID,
			})
		}
	}
	return entries
}

// WeekStart returns the Sunday on or before day.
func WeekStart(day domain.Date) domain.Date {
	return day.AddDays(-int(day.Weekday()))
}

// TasksForWeek returns seven entries, one per day of the week containing day
// (Sunday first).
func TasksForWeek(plan Plan, day domain.Date) map[domain.Date][]domain.CalendarEntry {
	start := WeekStart(day)
	week := make(map[domain.Date][]domain.CalendarEntry, 7)
	for i := 0; i < 7; i++ {
		d := start.AddDays(i)
		week[d] = TasksForDate(plan, d)
	}
	return week
}

// WeekDays returns the seven dates of the week containing day, in order.
func WeekDays(day domain.Date) []domain.Date {
	start := WeekStart(day)
	days := make([]domain.Date, 7)
	for i := range days {
		days[i] = start.AddDays(i)
	}
	return days
}

func hasWeekday(days []time.Weekday, wd time.Weekday) bool {
	for _, d := range days {
		if d == wd {
			return true
		}
	}
	return false
}

// sortedStats returns the stat ids ordered by level, weakest first.
// Ties keep the fixed stat order.
func sortedStats(stats map[domain.StatID]domain.StatProgress) []domain.StatID {
	ids := append([]domain.StatID(nil), domain.AllStats...)
	level := func(id domain.StatID) int {
		if sp, ok := stats[id]; ok && sp.Level > 0 {
			return sp.Level
		}
		return 1
	}
	sort.SliceStable(ids, func(i, j int) bool { return level(ids[i]) < level(ids[j]) })
	return ids
}
