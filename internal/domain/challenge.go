// Package domain — friend challenge types.
// A Challenge is a two-party race: pending → active → completed,
// with declined and canceled as side exits.
package domain

import "time"

// ChallengeType selects what is being compared.
type ChallengeType string

const (
	ChallengeStreak ChallengeType = "STREAK_COMPETITION"
	ChallengeLevel  ChallengeType = "LEVEL_RACE"
	ChallengeWeekly ChallengeType = "WEEKLY_LEADERBOARD"
)

func (t ChallengeType) IsValid() bool {
	switch t {
	case ChallengeStreak, ChallengeLevel, ChallengeWeekly:
		return true
	default:
		return false
	}
}

// ChallengeStatus tracks challenge lifecycle.
type ChallengeStatus string

const (
	ChallengePending   ChallengeStatus = "PENDING"
	ChallengeActive    ChallengeStatus = "ACTIVE"
	ChallengeCompleted ChallengeStatus = "COMPLETED"
	ChallengeDeclined  ChallengeStatus = "DECLINED"
	ChallengeCanceled  ChallengeStatus = "CANCELED"
)

// IsTerminal returns true if the challenge has reached a final state.
func (s ChallengeStatus) IsTerminal() bool {
	return s == ChallengeCompleted || s == ChallengeDeclined || s == ChallengeCanceled
}

// ChallengeParams holds type-specific settings.
// LEVEL_RACE uses Stat and TargetLevel; STREAK_COMPETITION may set TargetStreak.
type ChallengeParams struct {
	Stat         StatID    `json:"stat,omitempty"`
	TargetLevel  int       `json:"target_level,omitempty"`
	TargetStreak int       `json:"target_streak,omitempty"`
	EndDate      time.Time `json:"end_date,omitempty"`
}

// ParticipantProgress is one side's tracked value, by challenge type.
type ParticipantProgress struct {
	Streak       int       `json:"streak"`
	StartLevel   int       `json:"start_level"`
	CurrentLevel int       `json:"current_level"`
	Points       int       `json:"points"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Challenge is a competitive comparison between two players.
type Challenge struct {
	ID           string                         `json:"id"`
	Type         ChallengeType                  `json:"type"`
	Status       ChallengeStatus                `json:"status"`
	CreatorID    string                         `json:"creator_id"`
	RecipientID  string                         `json:"recipient_id"`
	Participants []string                       `json:"participants"`
	Params       ChallengeParams                `json:"parameters"`
	Progress     map[string]ParticipantProgress `json:"progress"`
	Winner       string                         `json:"winner,omitempty"`
	Title        string                         `json:"title"`
	TitleID      string                         `json:"title_id"`
	CreatedAt    time.Time                      `json:"created_at"`
	StartedAt    time.Time                      `json:"started_at,omitempty"`
	CompletedAt  time.Time                      `json:"completed_at,omitempty"`
	DeclinedAt   time.Time                      `json:"declined_at,omitempty"`
	CanceledAt   time.Time                      `json:"canceled_at,omitempty"`
}

// IsParticipant reports whether userID is one of the two sides.
func (c Challenge) IsParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Opponent returns the other participant.
func (c Challenge) Opponent(userID string) string {
	if userID == c.CreatorID {
		return c.RecipientID
	}
	return c.CreatorID
}

// Clone copies the progress map so updates don't alias the caller's value.
func (c Challenge) Clone() Challenge {
	out := c
	out.Participants = append([]string(nil), c.Participants...)
	out.Progress = make(map[string]ParticipantProgress, len(c.Progress))
	for k, v := range c.Progress {
		out.Progress[k] = v
	}
	return out
}
