package engagement

import (
	"fmt"
	"strings"
	"time"

	"github.com/sololeveling-irl/irl/internal/domain"
)

// Command is the closed set of player-state mutations. Each variant carries
// its own typed fields and is dispatched by Apply.
type Command interface {
	isCommand()
}

// AddTaskCmd appends a pending task.
type AddTaskCmd struct{ Task NewTask }

// DeleteTaskCmd drops a pending task.
type DeleteTaskCmd struct{ TaskID string }

// CompleteTaskCmd completes a pending task.
type CompleteTaskCmd struct{ TaskID string }

// ResetGameCmd replaces the state with a fresh one. Irreversible; callers
// confirm with the user before sending it.
type ResetGameCmd struct{}

// RenamePlayerCmd changes the display name.
type RenamePlayerCmd struct{ Name string }

func (AddTaskCmd) isCommand()      {}
func (DeleteTaskCmd) isCommand()   {}
func (CompleteTaskCmd) isCommand() {}
func (ResetGameCmd) isCommand()    {}
func (RenamePlayerCmd) isCommand() {}

// Outcome carries whatever a command produced besides the new state.
type Outcome struct {
	Added      *domain.PendingTask `json:"added,omitempty"`
	Completion *Completion         `json:"completion,omitempty"`
}

// Apply runs a command against state at now. On error the returned state is
// the input state.
func Apply(state domain.PlayerState, cmd Command, now time.Time) (domain.PlayerState, Outcome, error) {
	switch c := cmd.(type) {
	case AddTaskCmd:
		next, task, err := AddTask(state, c.Task, now)
		if err != nil {
			return state, Outcome{}, err
		}
		return next, Outcome{Added: &task}, nil

	case DeleteTaskCmd:
		next, err := DeleteTask(state, c.TaskID)
		if err != nil {
			return state, Outcome{}, err
		}
		return next, Outcome{}, nil

	case CompleteTaskCmd:
		next, comp, err := CompleteTask(state, c.TaskID, now)
		if err != nil {
			return state, Outcome{}, err
		}
		return next, Outcome{Completion: &comp}, nil

	case ResetGameCmd:
		return domain.NewPlayerState(state.PlayerName), Outcome{}, nil

	case RenamePlayerCmd:
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return state, Outcome{}, &domain.ValidationError{Field: "name", Reason: "required"}
		}
		next := state.Clone()
		next.PlayerName = name
		return next, Outcome{}, nil

	default:
		return state, Outcome{}, fmt.Errorf("unknown command %T: %w", cmd, domain.ErrValidation)
	}
}
