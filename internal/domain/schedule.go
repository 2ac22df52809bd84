package domain

import (
	"fmt"
	"time"
)

// Frequency drives when a recurring rule produces a task.
type Frequency string

const (
	FrequencyDaily        Frequency = "DAILY"
	FrequencyWeekly       Frequency = "WEEKLY"
	FrequencySpecificDays Frequency = "SPECIFIC_DAYS"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencySpecificDays:
		return true
	default:
		return false
	}
}

// RecurringRule is a template that materializes pending tasks on a schedule.
// DayOfWeek is used by WEEKLY, DaysOfWeek by SPECIFIC_DAYS (time.Weekday indices).
type RecurringRule struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Stat          StatID         `json:"stat"`
	Type          TaskType       `json:"type"`
	Frequency     Frequency      `json:"frequency"`
	DayOfWeek     time.Weekday   `json:"day_of_week"`
	DaysOfWeek    []time.Weekday `json:"days_of_week,omitempty"`
	LastGenerated Date           `json:"last_generated,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Validate checks the rule's static fields.
func (r RecurringRule) Validate() error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if !r.Stat.IsValid() {
		return &ValidationError{Field: "stat", Reason: fmt.Sprintf("unknown stat %q", r.Stat)}
	}
	if !r.Type.IsValid() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown task type %q", r.Type)}
	}
	switch r.Frequency {
	case FrequencyDaily:
	case FrequencyWeekly:
		if r.DayOfWeek < time.Sunday || r.DayOfWeek > time.Saturday {
			return &ValidationError{Field: "day_of_week", Reason: "must be 0-6"}
		}
	case FrequencySpecificDays:
		if len(r.DaysOfWeek) == 0 {
			return &ValidationError{Field: "days_of_week", Reason: "at least one day required"}
		}
		for _, d := range r.DaysOfWeek {
			if d < time.Sunday || d > time.Saturday {
				return &ValidationError{Field: "days_of_week", Reason: "must be 0-6"}
			}
		}
	default:
		return &ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", r.Frequency)}
	}
	return nil
}

// ScheduledTask is a one-shot task bound to a calendar date.
type ScheduledTask struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Stat          StatID    `json:"stat"`
	Type          TaskType  `json:"type"`
	ScheduledDate Date      `json:"scheduled_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// Validate checks the scheduled task's fields.
func (s ScheduledTask) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if !s.Stat.IsValid() {
		return &ValidationError{Field: "stat", Reason: fmt.Sprintf("unknown stat %q", s.Stat)}
	}
	if !s.Type.IsValid() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown task type %q", s.Type)}
	}
	if _, err := ParseDate(string(s.ScheduledDate)); err != nil {
		return err
	}
	return nil
}

// CalendarEntry is one item shown on a calendar day, scheduled or recurring.
type CalendarEntry struct {
	Name      string   `json:"name"`
	Stat      StatID   `json:"stat"`
	Type      TaskType `json:"type"`
	Recurring bool     `json:"recurring"`
	SourceID  string   `json:"source_id"`
}
