// Package domain — player progression types.
// A PlayerState is the root document the engines read and rewrite:
// six stats, the pending and completed task lists, and the daily streak.
package domain

import (
	"fmt"
	"time"
)

// ─── Stats ──────────────────────────────────────────────────────────────────

// StatID names one of the six fixed progression tracks.
type StatID string

const (
	StatDiscipline    StatID = "discipline"
	StatLinguist      StatID = "linguist"
	StatStamina       StatID = "stamina"
	StatStrength      StatID = "strength"
	StatIntelligence  StatID = "intelligence"
	StatConcentration StatID = "concentration"
)

// AllStats lists the stat ids in display order.
var AllStats = []StatID{
	StatDiscipline,
	StatLinguist,
	StatStamina,
	StatStrength,
	StatIntelligence,
	StatConcentration,
}

// IsValid reports whether s is one of the six fixed ids.
func (s StatID) IsValid() bool {
	switch s {
	case StatDiscipline, StatLinguist, StatStamina, StatStrength, StatIntelligence, StatConcentration:
		return true
	default:
		return false
	}
}

// DisplayName returns the capitalized stat name ("Strength").
func (s StatID) DisplayName() string {
	if s == "" {
		return ""
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// ParseStat validates a stat id.
func ParseStat(s string) (StatID, error) {
	id := StatID(s)
	if !id.IsValid() {
		return "", &ValidationError{Field: "stat", Reason: fmt.Sprintf("unknown stat %q", s)}
	}
	return id, nil
}

// HistoryEntry records points earned in a stat by one completion.
type HistoryEntry struct {
	Date     Date   `json:"date"`
	Points   int    `json:"points"`
	TaskName string `json:"task_name"`
}

// StatProgress is the level state of a single stat.
type StatProgress struct {
	Level          int            `json:"level"`
	Points         int            `json:"points"`          // toward next level
	LifetimePoints int            `json:"lifetime_points"` // never reset
	History        []HistoryEntry `json:"history"`
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TaskType sets the base point value of a task.
type TaskType string

const (
	TaskSimple    TaskType = "SIMPLE"
	TaskRegular   TaskType = "REGULAR"
	TaskChallenge TaskType = "CHALLENGE"
	TaskMajor     TaskType = "MAJOR"
	TaskMilestone TaskType = "MILESTONE"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TaskSimple, TaskRegular, TaskChallenge, TaskMajor, TaskMilestone:
		return true
	default:
		return false
	}
}

// ParseTaskType validates a task type.
func ParseTaskType(s string) (TaskType, error) {
	t := TaskType(s)
	if !t.IsValid() {
		return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown task type %q", s)}
	}
	return t, nil
}

// PendingTask is an active task waiting to be completed.
type PendingTask struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Stat          StatID    `json:"stat"`
	Type          TaskType  `json:"type"`
	CreatedAt     time.Time `json:"created_at"`
	FromRecurring string    `json:"from_recurring,omitempty"`
}

// CompletedTask is a PendingTask plus the award it produced.
type CompletedTask struct {
	PendingTask
	CompletedAt time.Time `json:"completed_at"`
	Points      int       `json:"points"`
	BasePoints  int       `json:"base_points"`
	BonusPoints int       `json:"bonus_points"`
}

// ─── Streak ─────────────────────────────────────────────────────────────────

// Streak counts consecutive calendar days with at least one completion.
type Streak struct {
	Current            int  `json:"current"`
	Longest            int  `json:"longest"`
	LastCompletionDate Date `json:"last_completion_date,omitempty"`
}

// ─── Player ─────────────────────────────────────────────────────────────────

// PlayerState is the root aggregate persisted per user.
type PlayerState struct {
	PlayerName     string                  `json:"player_name"`
	Stats          map[StatID]StatProgress `json:"stats"`
	Tasks          []PendingTask           `json:"tasks"`
	CompletedTasks []CompletedTask         `json:"completed_tasks"`
	Streak         Streak                  `json:"streak"`
}

// NewPlayerState returns the initial state: every stat at level 1 with no points.
func NewPlayerState(name string) PlayerState {
	stats := make(map[StatID]StatProgress, len(AllStats))
	for _, id := range AllStats {
		stats[id] = StatProgress{Level: 1, History: []HistoryEntry{}}
	}
	return PlayerState{
		PlayerName:     name,
		Stats:          stats,
		Tasks:          []PendingTask{},
		CompletedTasks: []CompletedTask{},
	}
}

// Clone returns a deep copy so engines can build a new state without
// aliasing the caller's slices and maps.
func (p PlayerState) Clone() PlayerState {
	out := p
	out.Stats = make(map[StatID]StatProgress, len(p.Stats))
	for id, sp := range p.Stats {
		sp.History = append(make([]HistoryEntry, 0, len(sp.History)+1), sp.History...)
		out.Stats[id] = sp
	}
	out.Tasks = append(make([]PendingTask, 0, len(p.Tasks)+1), p.Tasks...)
	out.CompletedTasks = append(make([]CompletedTask, 0, len(p.CompletedTasks)+1), p.CompletedTasks...)
	return out
}

// TaskIndex returns the position of the pending task with the given id, or -1.
func (p PlayerState) TaskIndex(id string) int {
	for i, t := range p.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// StatLevel returns the level of a stat, treating a missing entry as level 1.
func (p PlayerState) StatLevel(id StatID) int {
	if sp, ok := p.Stats[id]; ok && sp.Level > 0 {
		return sp.Level
	}
	return 1
}

// ─── Templates ──────────────────────────────────────────────────────────────

// TemplateCategory groups task templates.
type TemplateCategory string

const (
	TemplateRecommended TemplateCategory = "recommended"
	TemplateFavorites   TemplateCategory = "favorites"
	TemplatePersonal    TemplateCategory = "personal"
)

func (c TemplateCategory) IsValid() bool {
	switch c {
	case TemplateRecommended, TemplateFavorites, TemplatePersonal:
		return true
	default:
		return false
	}
}

// TaskTemplate is a reusable task blueprint. Not part of the progression state.
type TaskTemplate struct {
	ID       string           `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Stat     StatID           `json:"stat" yaml:"stat"`
	Type     TaskType         `json:"type" yaml:"type"`
	Category TemplateCategory `json:"category" yaml:"category"`
}
