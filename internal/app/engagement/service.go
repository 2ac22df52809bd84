package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/infra/metrics"
	"github.com/sololeveling-irl/irl/internal/logger"
)

// Result is what a command produced: the new state, the command outcome and
// any achievements or titles it unlocked.
type Result struct {
	State domain.PlayerState `json:"state"`
	Outcome
	Unlocked []domain.AchievementDef `json:"unlocked,omitempty"`
	Titles   []domain.TitleDef       `json:"titles,omitempty"`
}

// PlayerService owns player states. The in-memory copy is authoritative:
// a failed save is logged and the command still succeeds.
type PlayerService struct {
	store  domain.PlayerStore
	clock  domain.Clock
	log    *logger.Logger
	ach    *AchievementService
	titles *TitleService
	notify domain.Notifier

	mu    sync.Mutex
	cache map[string]domain.PlayerState
}

// PlayerServiceConfig wires the optional collaborators. Nil services are skipped.
type PlayerServiceConfig struct {
	Store        domain.PlayerStore
	Clock        domain.Clock
	Logger       *logger.Logger
	Achievements *AchievementService
	Titles       *TitleService
	Notifier     domain.Notifier
}

// NewPlayerService creates a player service.
func NewPlayerService(cfg PlayerServiceConfig) *PlayerService {
	if cfg.Clock == nil {
		cfg.Clock = domain.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &PlayerService{
		store:  cfg.Store,
		clock:  cfg.Clock,
		log:    cfg.Logger,
		ach:    cfg.Achievements,
		titles: cfg.Titles,
		notify: cfg.Notifier,
		cache:  make(map[string]domain.PlayerState),
	}
}

// Clock returns the service clock.
func (s *PlayerService) Clock() domain.Clock { return s.clock }

// Ensure returns the user's state, creating a fresh one named name if none exists.
func (s *PlayerService) Ensure(userID, name string) (domain.PlayerState, error) {
	if userID == "" {
		return domain.PlayerState{}, &domain.ValidationError{Field: "user_id", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loadLocked(userID)
	if err == nil {
		return state.Clone(), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.PlayerState{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Hunter"
	}
	state = domain.NewPlayerState(name)
	s.storeLocked(userID, state)
	s.log.Info("player created", "user_id", userID)
	return state.Clone(), nil
}

// State returns a copy of the user's state, or ErrNotFound.
func (s *PlayerService) State(userID string) (domain.PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.loadLocked(userID)
	if err != nil {
		return domain.PlayerState{}, err
	}
	return state.Clone(), nil
}

// Exists reports whether the user has a state.
func (s *PlayerService) Exists(userID string) bool {
	_, err := s.State(userID)
	return err == nil
}

// Execute applies cmd to the user's state at the service clock's now, saves
// the result and runs the unlock checks. A failed command changes nothing.
func (s *PlayerService) Execute(ctx context.Context, userID string, cmd Command) (Result, error) {
	now := s.clock.Now()

	s.mu.Lock()
	state, err := s.loadLocked(userID)
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	next, out, err := Apply(state, cmd, now)
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	s.storeLocked(userID, next)
	s.mu.Unlock()

	res := Result{State: next.Clone(), Outcome: out}
	s.record(cmd, out)

	if out.Completion != nil && out.Completion.LeveledUp {
		c := out.Completion
		s.send(ctx, userID, domain.Notification{
			Type:    domain.NotifyLevelUp,
			Title:   "Level Up!",
			Message: fmt.Sprintf("%s reached level %d", c.Task.Stat.DisplayName(), c.NewLevel),
			RefID:   string(c.Task.Stat),
		})
	}

	if _, reset := cmd.(ResetGameCmd); reset {
		return res, nil
	}
	res.Unlocked, res.Titles = s.checkUnlocks(ctx, userID, next)
	return res, nil
}

// ─── Convenience Wrappers ───────────────────────────────────────────────────

// AddTask creates a pending task with a fresh creation-ordered id.
func (s *PlayerService) AddTask(ctx context.Context, userID, name string, stat domain.StatID, typ domain.TaskType, fromRecurring string) (Result, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Result{}, fmt.Errorf("task id: %w", err)
	}
	return s.Execute(ctx, userID, AddTaskCmd{Task: NewTask{
		ID:            id.String(),
		Name:          name,
		Stat:          stat,
		Type:          typ,
		FromRecurring: fromRecurring,
	}})
}

// CompleteTask completes a pending task.
func (s *PlayerService) CompleteTask(ctx context.Context, userID, taskID string) (Result, error) {
	return s.Execute(ctx, userID, CompleteTaskCmd{TaskID: taskID})
}

// DeleteTask drops a pending task.
func (s *PlayerService) DeleteTask(ctx context.Context, userID, taskID string) (Result, error) {
	return s.Execute(ctx, userID, DeleteTaskCmd{TaskID: taskID})
}

// Reset replaces the user's progression with a fresh state. Unlocked
// achievements and earned titles are kept.
func (s *PlayerService) Reset(ctx context.Context, userID string) (Result, error) {
	return s.Execute(ctx, userID, ResetGameCmd{})
}

// Rename changes the player's display name.
func (s *PlayerService) Rename(ctx context.Context, userID, name string) (Result, error) {
	return s.Execute(ctx, userID, RenamePlayerCmd{Name: name})
}

// Recheck runs the achievement and title checks without changing state.
func (s *PlayerService) Recheck(ctx context.Context, userID string) ([]domain.AchievementDef, []domain.TitleDef, error) {
	state, err := s.State(userID)
	if err != nil {
		return nil, nil, err
	}
	unlocked, granted := s.checkUnlocks(ctx, userID, state)
	return unlocked, granted, nil
}

// ─── Internals ──────────────────────────────────────────────────────────────

func (s *PlayerService) loadLocked(userID string) (domain.PlayerState, error) {
	if state, ok := s.cache[userID]; ok {
		return state, nil
	}
	state, err := s.store.LoadPlayer(userID)
	if err != nil {
		return domain.PlayerState{}, err
	}
	s.cache[userID] = state
	metrics.ActivePlayers.Set(float64(len(s.cache)))
	return state, nil
}

func (s *PlayerService) storeLocked(userID string, state domain.PlayerState) {
	s.cache[userID] = state
	metrics.ActivePlayers.Set(float64(len(s.cache)))
	if err := s.store.SavePlayer(userID, state); err != nil {
		metrics.StoreErrors.WithLabelValues("save_player").Inc()
		s.log.Error("save player failed, keeping in-memory state", "user_id", userID, "error", err)
	}
}

func (s *PlayerService) record(cmd Command, out Outcome) {
	switch cmd.(type) {
	case ResetGameCmd:
		metrics.GameResets.Inc()
	}
	if out.Added != nil {
		origin := "manual"
		if out.Added.FromRecurring != "" {
			origin = "recurring"
		}
		metrics.TasksAdded.WithLabelValues(origin).Inc()
	}
	if c := out.Completion; c != nil {
		stat := string(c.Task.Stat)
		metrics.TasksCompleted.WithLabelValues(string(c.Task.Type)).Inc()
		metrics.PointsAwarded.WithLabelValues(stat, "base").Add(float64(c.Task.BasePoints))
		metrics.PointsAwarded.WithLabelValues(stat, "bonus").Add(float64(c.Task.BonusPoints))
		if c.LeveledUp {
			metrics.LevelUps.WithLabelValues(stat).Inc()
		}
	}
}

func (s *PlayerService) checkUnlocks(ctx context.Context, userID string, state domain.PlayerState) ([]domain.AchievementDef, []domain.TitleDef) {
	now := s.clock.Now()

	var unlocked []domain.AchievementDef
	if s.ach != nil {
		var err error
		unlocked, err = s.ach.CheckAndUnlock(userID, state, now)
		if err != nil {
			s.log.Error("achievement check failed", "user_id", userID, "error", err)
		}
		for _, def := range unlocked {
			metrics.AchievementsUnlocked.WithLabelValues(string(def.Category)).Inc()
			s.send(ctx, userID, domain.Notification{
				Type:    domain.NotifyAchievement,
				Title:   "Achievement unlocked: " + def.Title,
				Message: def.Description,
				RefID:   def.ID,
			})
		}
	}

	var granted []domain.TitleDef
	if s.titles != nil {
		var err error
		granted, err = s.titles.CheckAndGrant(userID, state, now)
		if err != nil {
			s.log.Error("title check failed", "user_id", userID, "error", err)
		}
		for _, def := range granted {
			metrics.TitlesGranted.WithLabelValues(string(def.Category)).Inc()
			s.send(ctx, userID, domain.Notification{
				Type:    domain.NotifyTitle,
				Title:   "New title: " + def.Name,
				Message: def.Description,
				RefID:   def.ID,
			})
		}
	}
	return unlocked, granted
}

func (s *PlayerService) send(ctx context.Context, userID string, n domain.Notification) {
	if s.notify == nil {
		return
	}
	if err := s.notify.Send(ctx, userID, n); err != nil {
		s.log.Warn("notification failed", "user_id", userID, "type", n.Type, "error", err)
	}
}
