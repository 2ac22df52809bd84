package challenge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/sololeveling-irl/irl/internal/app/engagement"
	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/infra/metrics"
	"github.com/sololeveling-irl/irl/internal/infra/sqlite"
	"github.com/sololeveling-irl/irl/internal/logger"
)

// Service stores challenges, reads player states through the player service
// and awards prize titles to winners.
type Service struct {
	db      *sqlite.DB
	players *engagement.PlayerService
	titles  *engagement.TitleService
	notify  domain.Notifier
	log     *logger.Logger

	mu sync.Mutex // one transition at a time
}

// Config wires the service collaborators. Notifier and Logger are optional.
type Config struct {
	DB       *sqlite.DB
	Players  *engagement.PlayerService
	Titles   *engagement.TitleService
	Notifier domain.Notifier
	Logger   *logger.Logger
}

// NewService creates a challenge service.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Service{
		db:      cfg.DB,
		players: cfg.Players,
		titles:  cfg.Titles,
		notify:  cfg.Notifier,
		log:     cfg.Logger,
	}
}

// Create opens a challenge from creatorID to recipientID.
func (s *Service) Create(ctx context.Context, creatorID, recipientID string, typ domain.ChallengeType, params domain.ChallengeParams) (domain.Challenge, error) {
	creator, err := s.players.State(creatorID)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("creator: %w", err)
	}
	var recipient *domain.PlayerState
	if st, err := s.players.State(recipientID); err == nil {
		recipient = &st
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Challenge{}, fmt.Errorf("recipient: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("challenge id: %w", err)
	}
	c, err := Create(NewChallenge{
		ID:          id.String(),
		CreatorID:   creatorID,
		RecipientID: recipientID,
		Type:        typ,
		Params:      params,
	}, creator, recipient, s.players.Clock().Now())
	if err != nil {
		return domain.Challenge{}, err
	}

	if err := s.db.InsertChallenge(c); err != nil {
		return domain.Challenge{}, fmt.Errorf("insert challenge: %w", err)
	}
	s.record(c)
	s.send(ctx, recipientID, domain.Notification{
		Type:    domain.NotifyChallengeCreated,
		Title:   "New challenge",
		Message: fmt.Sprintf("%s challenged you: %s", creator.PlayerName, describe(c)),
		RefID:   c.ID,
	})
	return c, nil
}

// Get returns a challenge the user takes part in.
func (s *Service) Get(userID, id string) (domain.Challenge, error) {
	c, err := s.db.GetChallenge(id)
	if err != nil {
		return domain.Challenge{}, err
	}
	if !c.IsParticipant(userID) {
		return domain.Challenge{}, fmt.Errorf("challenge %s: %w", id, domain.ErrNotAuthorized)
	}
	return *c, nil
}

// List returns the user's challenges, newest first.
func (s *Service) List(userID string) ([]domain.Challenge, error) {
	return s.db.ListChallenges(userID)
}

// Accept activates a pending challenge on behalf of its recipient.
func (s *Service) Accept(ctx context.Context, id, actorID string) (domain.Challenge, error) {
	return s.transition(ctx, id, func(c domain.Challenge) (domain.Challenge, error) {
		recipient, err := s.players.State(actorID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return c, err
		}
		return Accept(c, actorID, recipient, s.players.Clock().Now())
	})
}

// Decline refuses a pending challenge on behalf of its recipient.
func (s *Service) Decline(ctx context.Context, id, actorID string) (domain.Challenge, error) {
	return s.transition(ctx, id, func(c domain.Challenge) (domain.Challenge, error) {
		return Decline(c, actorID, s.players.Clock().Now())
	})
}

// Cancel withdraws a pending or active challenge.
func (s *Service) Cancel(ctx context.Context, id, actorID string) (domain.Challenge, error) {
	return s.transition(ctx, id, func(c domain.Challenge) (domain.Challenge, error) {
		return Cancel(c, actorID, s.players.Clock().Now())
	})
}

// UpdateProgress records explicit progress for actorID.
func (s *Service) UpdateProgress(ctx context.Context, id, actorID string, u Update) (domain.Challenge, error) {
	return s.transition(ctx, id, func(c domain.Challenge) (domain.Challenge, error) {
		return UpdateProgress(c, actorID, u, s.players.Clock().Now())
	})
}

// Sync reports actorID's progress as read from their player state.
func (s *Service) Sync(ctx context.Context, id, actorID string) (domain.Challenge, error) {
	return s.transition(ctx, id, func(c domain.Challenge) (domain.Challenge, error) {
		state, err := s.players.State(actorID)
		if err != nil {
			return c, err
		}
		now := s.players.Clock().Now()
		return UpdateProgress(c, actorID, UpdateFromState(c, state, now), now)
	})
}

// transition loads a challenge, applies fn, stores the result and runs the
// side effects of the new status. A rejected transition stores nothing.
func (s *Service) transition(ctx context.Context, id string, fn func(domain.Challenge) (domain.Challenge, error)) (domain.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.db.GetChallenge(id)
	if err != nil {
		return domain.Challenge{}, err
	}
	next, err := fn(*cur)
	if err != nil {
		return *cur, err
	}
	if err := s.db.UpdateChallenge(next); err != nil {
		return *cur, fmt.Errorf("update challenge: %w", err)
	}
	if next.Status != cur.Status {
		s.record(next)
		s.onStatusChange(ctx, next)
	}
	return next, nil
}

func (s *Service) onStatusChange(ctx context.Context, c domain.Challenge) {
	switch c.Status {
	case domain.ChallengeActive:
		s.send(ctx, c.CreatorID, domain.Notification{
			Type:    domain.NotifyChallengeAccepted,
			Title:   "Challenge accepted",
			Message: describe(c) + " has started",
			RefID:   c.ID,
		})
	case domain.ChallengeDeclined:
		s.send(ctx, c.CreatorID, domain.Notification{
			Type:    domain.NotifyChallengeDeclined,
			Title:   "Challenge declined",
			Message: describe(c) + " was declined",
			RefID:   c.ID,
		})
	case domain.ChallengeCanceled:
		for _, p := range c.Participants {
			s.send(ctx, p, domain.Notification{
				Type:    domain.NotifyChallengeCanceled,
				Title:   "Challenge canceled",
				Message: describe(c) + " was canceled",
				RefID:   c.ID,
			})
		}
	case domain.ChallengeCompleted:
		s.awardWinner(c)
		for _, p := range c.Participants {
			s.send(ctx, p, domain.Notification{
				Type:    domain.NotifyChallengeComplete,
				Title:   "Challenge complete",
				Message: resultMessage(c, p),
				RefID:   c.ID,
			})
		}
	}
}

// awardWinner grants the prize title. Already holding it is a no-op.
func (s *Service) awardWinner(c domain.Challenge) {
	if c.Winner == "" || s.titles == nil {
		return
	}
	isNew, err := s.titles.Award(c.Winner, c.TitleID, c.CompletedAt)
	if err != nil {
		s.log.Error("award challenge title failed", "user_id", c.Winner, "challenge_id", c.ID, "error", err)
		return
	}
	if isNew {
		metrics.TitlesGranted.WithLabelValues(string(domain.TitleCatChallenge)).Inc()
		s.log.Info("challenge title awarded", "user_id", c.Winner, "title", c.TitleID)
	}
}

func (s *Service) record(c domain.Challenge) {
	metrics.ChallengeTransitions.WithLabelValues(string(c.Type), string(c.Status)).Inc()
	s.log.Debug("challenge transition", "challenge_id", c.ID, "type", c.Type, "status", c.Status)
}

func (s *Service) send(ctx context.Context, userID string, n domain.Notification) {
	if s.notify == nil {
		return
	}
	if err := s.notify.Send(ctx, userID, n); err != nil {
		s.log.Warn("notification failed", "user_id", userID, "type", n.Type, "error", err)
	}
}

func describe(c domain.Challenge) string {
	switch c.Type {
	case domain.ChallengeLevel:
		return fmt.Sprintf("race to %s level %d", c.Params.Stat.DisplayName(), c.Params.TargetLevel)
	case domain.ChallengeStreak:
		if c.Params.TargetStreak > 0 {
			return fmt.Sprintf("race to a %d-day streak", c.Params.TargetStreak)
		}
		return "streak competition"
	default:
		return "weekly leaderboard"
	}
}

func resultMessage(c domain.Challenge, userID string) string {
	switch c.Winner {
	case "":
		return describe(c) + " ended in a tie"
	case userID:
		return fmt.Sprintf("You won %s and earned %q", describe(c), c.Title)
	default:
		return "You lost " + describe(c)
	}
}

// ─── Leaderboard ────────────────────────────────────────────────────────────

// LeaderboardEntry is one ranked player.
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"user_id"`
	PlayerName     string `json:"player_name"`
	OverallLevel   int    `json:"overall_level"`
	LifetimePoints int    `json:"lifetime_points"`
	Streak         int    `json:"streak"`
}

// Leaderboard ranks every stored player, limited to limit entries (0 = all).
func (s *Service) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	ids, err := s.db.PlayerIDs()
	if err != nil {
		return nil, fmt.Errorf("player ids: %w", err)
	}
	states := make(map[string]domain.PlayerState, len(ids))
	for _, id := range ids {
		st, err := s.players.State(id)
		if err != nil {
			s.log.Warn("leaderboard skipped player", "user_id", id, "error", err)
			continue
		}
		states[id] = st
	}
	return Rank(states, domain.DateOf(s.players.Clock().Now()), limit), nil
}

// Rank orders players by lifetime points, then overall level, then name.
func Rank(states map[string]domain.PlayerState, today domain.Date, limit int) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(states))
	for id, st := range states {
		out = append(out, LeaderboardEntry{
			UserID:         id,
			PlayerName:     st.PlayerName,
			OverallLevel:   engagement.OverallLevel(st.Stats),
			LifetimePoints: engagement.TotalLifetimePoints(st.Stats),
			Streak:         engagement.EffectiveStreak(st.Streak, today),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LifetimePoints != b.LifetimePoints {
			return a.LifetimePoints > b.LifetimePoints
		}
		if a.OverallLevel != b.OverallLevel {
			return a.OverallLevel > b.OverallLevel
		}
		if a.PlayerName != b.PlayerName {
			return a.PlayerName < b.PlayerName
		}
		return a.UserID < b.UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
