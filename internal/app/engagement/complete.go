package engagement

import (
	"strings"
	"time"

	"github.com/sololeveling-irl/irl/internal/domain"
)

// Completion is the outcome of completing one task.
type Completion struct {
	Task      domain.CompletedTask `json:"task"`
	Streak    domain.Streak        `json:"streak"`
	LeveledUp bool                 `json:"leveled_up"`
	OldLevel  int                  `json:"old_level"`
	NewLevel  int                  `json:"new_level"`
}

// CompleteTask completes the pending task with the given id at now.
// It returns a new state and leaves the input untouched. An unknown id
// returns ErrNotFound together with the unchanged state.
//
// A completion grants at most one level, even when the overflow would cover
// more: the remainder simply carries into the next level's points.
func CompleteTask(state domain.PlayerState, taskID string, now time.Time) (domain.PlayerState, Completion, error) {
	idx := state.TaskIndex(taskID)
	if idx < 0 {
		return state, Completion{}, domain.NotFound("task", taskID)
	}

	next := state.Clone()
	task := next.Tasks[idx]
	today := domain.DateOf(now)

	next.Streak = AdvanceStreak(next.Streak, today)

	base := BasePoints(task.Type)
	bonus := StreakBonus(base, next.Streak.Current)
	total := base + bonus

	sp, ok := next.Stats[task.Stat]
	if !ok || sp.Level < 1 {
		sp.Level = 1
	}
	oldLevel := sp.Level
	sp.Points += total
	sp.LifetimePoints += total
	if need := PointsToNextLevel(sp.Level); sp.Points >= need {
		sp.Points -= need
		sp.Level++
	}
	sp.History = append(sp.History, domain.HistoryEntry{
		Date:     today,
		Points:   total,
		TaskName: task.Name,
	})
	next.Stats[task.Stat] = sp

	done := domain.CompletedTask{
		PendingTask: task,
		CompletedAt: now,
		Points:      total,
		BasePoints:  base,
		BonusPoints: bonus,
	}
	next.Tasks = append(next.Tasks[:idx], next.Tasks[idx+1:]...)
	next.CompletedTasks = append(next.CompletedTasks, done)

	return next, Completion{
		Task:      done,
		Streak:    next.Streak,
		LeveledUp: sp.Level > oldLevel,
		OldLevel:  oldLevel,
		NewLevel:  sp.Level,
	}, nil
}

// NewTask describes a task to add to the pending list.
type NewTask struct {
	ID            string
	Name          string
	Stat          domain.StatID
	Type          domain.TaskType
	FromRecurring string
}

// Validate rejects tasks without a name, a known stat or a known type.
func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return &domain.ValidationError{Field: "name", Reason: "required"}
	}
	if n.Stat == "" {
		return &domain.ValidationError{Field: "stat", Reason: "required"}
	}
	if !n.Stat.IsValid() {
		return &domain.ValidationError{Field: "stat", Reason: "unknown stat " + string(n.Stat)}
	}
	if !n.Type.IsValid() {
		return &domain.ValidationError{Field: "type", Reason: "unknown task type " + string(n.Type)}
	}
	if n.ID == "" {
		return &domain.ValidationError{Field: "id", Reason: "required"}
	}
	return nil
}

// AddTask appends a pending task. Duplicate ids are rejected.
func AddTask(state domain.PlayerState, n NewTask, now time.Time) (domain.PlayerState, domain.PendingTask, error) {
	if err := n.Validate(); err != nil {
		return state, domain.PendingTask{}, err
	}
	if state.TaskIndex(n.ID) >= 0 {
		return state, domain.PendingTask{}, &domain.ValidationError{Field: "id", Reason: "duplicate task id"}
	}
	task := domain.PendingTask{
		ID:            n.ID,
		Name:          strings.TrimSpace(n.Name),
		Stat:          n.Stat,
		Type:          n.Type,
		CreatedAt:     now,
		FromRecurring: n.FromRecurring,
	}
	next := state.Clone()
	next.Tasks = append(next.Tasks, task)
	return next, task, nil
}

// DeleteTask removes a pending task without awarding anything.
func DeleteTask(state domain.PlayerState, taskID string) (domain.PlayerState, error) {
	idx := state.TaskIndex(taskID)
	if idx < 0 {
		return state, domain.NotFound("task", taskID)
	}
	next := state.Clone()
	next.Tasks = append(next.Tasks[:idx], next.Tasks[idx+1:]...)
	return next, nil
}

// DaysActive counts distinct calendar days that have at least one completion.
func DaysActive(state domain.PlayerState) int {
	days := make(map[domain.Date]struct{})
	for _, t := range state.CompletedTasks {
		days[domain.DateOf(t.CompletedAt)] = struct{}{}
	}
	return len(days)
}
