// Package challenge implements two-party competitions between players:
// streak races, stat level races and weekly point races.
//
// The engine functions take a Challenge value and return a new one; they
// never mutate their input and return a typed error for every rejected
// transition. Service adds storage, title awards and notifications.
package challenge

import (
	"fmt"
	"time"

	"github.com/sololeveling-irl/irl/internal/app/engagement"
	"github.com/sololeveling-irl/irl/internal/domain"
)

// WeeklyDuration is how long a weekly leaderboard runs after creation.
const WeeklyDuration = 7 * 24 * time.Hour

// NewChallenge describes a challenge to create.
type NewChallenge struct {
	ID          string
	CreatorID   string
	RecipientID string
	Type        domain.ChallengeType
	Params      domain.ChallengeParams
}

// Update is a participant's reported progress. Only the field matching the
// challenge type is read.
type Update struct {
	Streak int `json:"streak"`
	Level  int `json:"level"`
	Points int `json:"points"`
}

// ─── Creation ───────────────────────────────────────────────────────────────

// Create builds a PENDING challenge. recipient is the recipient's player
// state, or nil when the recipient has none (ErrNotFound).
func Create(in NewChallenge, creator domain.PlayerState, recipient *domain.PlayerState, now time.Time) (domain.Challenge, error) {
	if in.ID == "" {
		return domain.Challenge{}, &domain.ValidationError{Field: "id", Reason: "required"}
	}
	if in.RecipientID == "" {
		return domain.Challenge{}, &domain.ValidationError{Field: "recipient_id", Reason: "required"}
	}
	if in.CreatorID == in.RecipientID {
		return domain.Challenge{}, &domain.ValidationError{Field: "recipient_id", Reason: "cannot challenge yourself"}
	}
	if err := validateParams(in.Type, in.Params); err != nil {
		return domain.Challenge{}, err
	}
	if recipient == nil {
		return domain.Challenge{}, domain.NotFound("player", in.RecipientID)
	}

	c := domain.Challenge{
		ID:           in.ID,
		Type:         in.Type,
		Status:       domain.ChallengePending,
		CreatorID:    in.CreatorID,
		RecipientID:  in.RecipientID,
		Participants: []string{in.CreatorID, in.RecipientID},
		Params:       in.Params,
		Progress:     make(map[string]domain.ParticipantProgress, 2),
		Title:        engagement.ChallengeTitleName(in.Type, in.Params.Stat),
		TitleID:      engagement.ChallengeTitleID(in.Type, in.Params.Stat),
		CreatedAt:    now,
	}

	switch in.Type {
	case domain.ChallengeStreak:
		c.Progress[in.CreatorID] = domain.ParticipantProgress{LastUpdated: now}
		c.Progress[in.RecipientID] = domain.ParticipantProgress{LastUpdated: now}
	case domain.ChallengeLevel:
		c.Progress[in.CreatorID] = levelSnapshot(creator, in.Params.Stat, now)
		c.Progress[in.RecipientID] = levelSnapshot(*recipient, in.Params.Stat, now)
	case domain.ChallengeWeekly:
		c.Params.EndDate = now.Add(WeeklyDuration)
		c.Progress[in.CreatorID] = domain.ParticipantProgress{LastUpdated: now}
		c.Progress[in.RecipientID] = domain.ParticipantProgress{LastUpdated: now}
	}
	return c, nil
}

func validateParams(t domain.ChallengeType, p domain.ChallengeParams) error {
	if !t.IsValid() {
		return &domain.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown challenge type %q", t)}
	}
	switch t {
	case domain.ChallengeLevel:
		if !p.Stat.IsValid() {
			return &domain.ValidationError{Field: "stat", Reason: fmt.Sprintf("unknown stat %q", p.Stat)}
		}
		if p.TargetLevel < 2 {
			return &domain.ValidationError{Field: "target_level", Reason: "must be at least 2"}
		}
	case domain.ChallengeStreak:
		if p.TargetStreak < 0 {
			return &domain.ValidationError{Field: "target_streak", Reason: "must not be negative"}
		}
	}
	return nil
}

func levelSnapshot(state domain.PlayerState, stat domain.StatID, now time.Time) domain.ParticipantProgress {
	lvl := state.StatLevel(stat)
	return domain.ParticipantProgress{StartLevel: lvl, CurrentLevel: lvl, LastUpdated: now}
}

// ─── Transitions ────────────────────────────────────────────────────────────

// Accept moves a PENDING challenge to ACTIVE. Only the recipient may accept.
// For level races the recipient's starting level is re-read at acceptance.
func Accept(c domain.Challenge, actorID string, recipient domain.PlayerState, now time.Time) (domain.Challenge, error) {
	if actorID != c.RecipientID {
		return c, fmt.Errorf("accept challenge %s: %w", c.ID, domain.ErrNotAuthorized)
	}
	if c.Status != domain.ChallengePending {
		return c, fmt.Errorf("accept challenge %s from %s: %w", c.ID, c.Status, domain.ErrInvalidState)
	}
	out := c.Clone()
	out.Status = domain.ChallengeActive
	out.StartedAt = now
	if out.Type == domain.ChallengeLevel {
		out.Progress[actorID] = levelSnapshot(recipient, out.Params.Stat, now)
	}
	return out, nil
}

// Decline moves a PENDING challenge to DECLINED. Only the recipient may decline.
func Decline(c domain.Challenge, actorID string, now time.Time) (domain.Challenge, error) {
	if actorID != c.RecipientID {
		return c, fmt.Errorf("decline challenge %s: %w", c.ID, domain.ErrNotAuthorized)
	}
	if c.Status != domain.ChallengePending {
		return c, fmt.Errorf("decline challenge %s from %s: %w", c.ID, c.Status, domain.ErrInvalidState)
	}
	out := c.Clone()
	out.Status = domain.ChallengeDeclined
	out.DeclinedAt = now
	return out, nil
}

// Cancel ends a PENDING or ACTIVE challenge without a winner.
// Either participant may cancel.
func Cancel(c domain.Challenge, actorID string, now time.Time) (domain.Challenge, error) {
	if !c.IsParticipant(actorID) {
		return c, fmt.Errorf("cancel challenge %s: %w", c.ID, domain.ErrNotAuthorized)
	}
	if c.Status != domain.ChallengePending && c.Status != domain.ChallengeActive {
		return c, fmt.Errorf("cancel challenge %s from %s: %w", c.ID, c.Status, domain.ErrInvalidState)
	}
	out := c.Clone()
	out.Status = domain.ChallengeCanceled
	out.CanceledAt = now
	return out, nil
}

// UpdateProgress records a participant's progress on an ACTIVE challenge
// and resolves it when the type's win condition holds:
//
//	STREAK_COMPETITION  streak ≥ TargetStreak (when set): updater wins
//	LEVEL_RACE          level ≥ TargetLevel: updater wins
//	WEEKLY_LEADERBOARD  now ≥ EndDate: more points wins, a tie has no winner
//
// The returned challenge is COMPLETED when resolved.
func UpdateProgress(c domain.Challenge, actorID string, u Update, now time.Time) (domain.Challenge, error) {
	if !c.IsParticipant(actorID) {
		return c, fmt.Errorf("update challenge %s: %w", c.ID, domain.ErrNotAuthorized)
	}
	if c.Status != domain.ChallengeActive {
		return c, fmt.Errorf("update challenge %s in %s: %w", c.ID, c.Status, domain.ErrInvalidState)
	}
	if u.Streak < 0 || u.Level < 0 || u.Points < 0 {
		return c, &domain.ValidationError{Field: "progress", Reason: "values must not be negative"}
	}

	out := c.Clone()
	p := out.Progress[actorID]
	p.LastUpdated = now

	switch out.Type {
	case domain.ChallengeStreak:
		p.Streak = u.Streak
		out.Progress[actorID] = p
		if out.Params.TargetStreak > 0 && p.Streak >= out.Params.TargetStreak {
			complete(&out, actorID, now)
		}

	case domain.ChallengeLevel:
		p.CurrentLevel = u.Level
		out.Progress[actorID] = p
		if p.CurrentLevel >= out.Params.TargetLevel {
			complete(&out, actorID, now)
		}

	case domain.ChallengeWeekly:
		p.Points = u.Points
		out.Progress[actorID] = p
		if !now.Before(out.Params.EndDate) {
			complete(&out, weeklyWinner(out), now)
		}
	}
	return out, nil
}

func complete(c *domain.Challenge, winner string, now time.Time) {
	c.Status = domain.ChallengeCompleted
	c.Winner = winner
	c.CompletedAt = now
}

// weeklyWinner returns the participant with more points, or "" on a tie.
func weeklyWinner(c domain.Challenge) string {
	a, b := c.CreatorID, c.RecipientID
	pa, pb := c.Progress[a].Points, c.Progress[b].Points
	switch {
	case pa > pb:
		return a
	case pb > pa:
		return b
	default:
		return ""
	}
}

// ─── Progress From State ────────────────────────────────────────────────────

// UpdateFromState derives a participant's Update from their player state.
// Weekly points count what was earned since the challenge started.
func UpdateFromState(c domain.Challenge, state domain.PlayerState, now time.Time) Update {
	u := Update{
		Streak: engagement.EffectiveStreak(state.Streak, domain.DateOf(now)),
		Level:  state.StatLevel(c.Params.Stat),
	}
	since := c.StartedAt
	if since.IsZero() {
		since = c.CreatedAt
	}
	for _, t := range state.CompletedTasks {
		if !t.CompletedAt.Before(since) {
			u.Points += t.Points
		}
	}
	return u
}
