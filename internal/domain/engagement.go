// Package domain — engagement types.
// Achievements and titles are static tables of data. Each entry carries a
// Requirement variant that a pure evaluator checks against a PlayerState.
package domain

import (
	"fmt"
	"time"
)

// ─── Requirements ───────────────────────────────────────────────────────────

// RequirementKind tags which fields of a Requirement apply.
type RequirementKind string

const (
	ReqStreak         RequirementKind = "streak"          // Streak
	ReqOverallLevel   RequirementKind = "overall_level"   // Level
	ReqTaskCount      RequirementKind = "task_count"      // Count
	ReqStatLevel      RequirementKind = "stat_level"      // Stat, Level
	ReqMultiStatAll   RequirementKind = "multi_stat_all"  // Stats
	ReqAllStats       RequirementKind = "all_stats"       // Level
	ReqDaysActive     RequirementKind = "days_active"     // Days
	ReqLifetimePoints RequirementKind = "lifetime_points" // Points
	ReqChallengeWin   RequirementKind = "challenge_win"   // ChallengeType
)

// StatLevel pairs a stat with a minimum level.
type StatLevel struct {
	Stat  StatID `json:"stat"`
	Level int    `json:"level"`
}

// Requirement is a tagged variant; only the fields named for Kind are read.
type Requirement struct {
	Kind          RequirementKind `json:"kind"`
	Stat          StatID          `json:"stat,omitempty"`
	Level         int             `json:"level,omitempty"`
	Stats         []StatLevel     `json:"stats,omitempty"`
	Streak        int             `json:"streak,omitempty"`
	Count         int             `json:"count,omitempty"`
	Days          int             `json:"days,omitempty"`
	Points        int             `json:"points,omitempty"`
	ChallengeType ChallengeType   `json:"challenge_type,omitempty"`
}

// Progress is a {current, target} pair; Current never exceeds Target.
type Progress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

// ─── Achievements ───────────────────────────────────────────────────────────

// AchievementCategory groups achievements by theme.
type AchievementCategory string

const (
	CatStreaks    AchievementCategory = "streaks"
	CatLevels     AchievementCategory = "levels"
	CatTasks      AchievementCategory = "tasks"
	CatStats      AchievementCategory = "stats"
	CatBalance    AchievementCategory = "balance"
	CatDedication AchievementCategory = "dedication"
)

// AchievementDef is one row of the static achievement table.
type AchievementDef struct {
	ID          string              `json:"id"`
	Category    AchievementCategory `json:"category"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Requirement Requirement         `json:"requirement"`
}

// UnlockedAchievement records when an achievement was earned. Append-only.
type UnlockedAchievement struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// AchievementNotification is created once per new unlock.
// Read and cleared are independent: a read notification stays until cleared.
type AchievementNotification struct {
	ID            string    `json:"id"`
	AchievementID string    `json:"achievement_id"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

// AchievementStatus is a definition joined with the player's unlock and progress.
type AchievementStatus struct {
	AchievementDef
	Unlocked   bool      `json:"unlocked"`
	UnlockedAt time.Time `json:"unlocked_at,omitempty"`
	Progress   Progress  `json:"progress"`
}

// ─── Titles ─────────────────────────────────────────────────────────────────

// Rarity is a display tier for titles.
type Rarity struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

var (
	RarityCommon    = Rarity{Name: "Common", Color: "#9ca3af"}
	RarityUncommon  = Rarity{Name: "Uncommon", Color: "#22c55e"}
	RarityRare      = Rarity{Name: "Rare", Color: "#3b82f6"}
	RarityEpic      = Rarity{Name: "Epic", Color: "#a855f7"}
	RarityLegendary = Rarity{Name: "Legendary", Color: "#f59e0b"}
)

// TitleCategory groups titles by theme.
type TitleCategory string

const (
	TitleCatStat      TitleCategory = "stat"
	TitleCatBalance   TitleCategory = "balance"
	TitleCatStreak    TitleCategory = "streak"
	TitleCatTasks     TitleCategory = "tasks"
	TitleCatDedicated TitleCategory = "dedication"
	TitleCatChallenge TitleCategory = "challenge"
)

// TitleDef is one row of the static title table.
type TitleDef struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Category     TitleCategory `json:"category"`
	Rarity       Rarity        `json:"rarity"`
	Icon         string        `json:"icon"`
	Requirements Requirement   `json:"requirements"`
}

// TitleRecord is the user's earned set and the single displayed title.
// Selected, when non-empty, is always a member of Titles.
type TitleRecord struct {
	Titles   []string `json:"titles"`
	Selected string   `json:"selected_title,omitempty"`
}

// Has reports whether the title id has been earned.
func (r TitleRecord) Has(id string) bool {
	for _, t := range r.Titles {
		if t == id {
			return true
		}
	}
	return false
}

// Award returns the record with id added. It reports false and leaves the
// record unchanged when the title is already held.
func (r TitleRecord) Award(id string) (TitleRecord, bool) {
	if r.Has(id) {
		return r, false
	}
	out := TitleRecord{Titles: append(append(make([]string, 0, len(r.Titles)+1), r.Titles...), id), Selected: r.Selected}
	return out, true
}

// Select makes id the displayed title. Fails with ErrNotEligible unless earned.
func (r TitleRecord) Select(id string) (TitleRecord, error) {
	if !r.Has(id) {
		return r, fmt.Errorf("title %q: %w", id, ErrNotEligible)
	}
	r.Selected = id
	return r, nil
}

// Deselect clears the displayed title.
func (r TitleRecord) Deselect() TitleRecord {
	r.Selected = ""
	return r
}

// ─── Notifications ──────────────────────────────────────────────────────────

// NotificationType categorizes delivered notifications.
type NotificationType string

const (
	NotifyAchievement       NotificationType = "achievement"
	NotifyTitle             NotificationType = "title"
	NotifyLevelUp           NotificationType = "level_up"
	NotifyChallengeCreated  NotificationType = "challenge_created"
	NotifyChallengeAccepted NotificationType = "challenge_accepted"
	NotifyChallengeDeclined NotificationType = "challenge_declined"
	NotifyChallengeCanceled NotificationType = "challenge_canceled"
	NotifyChallengeComplete NotificationType = "challenge_completed"
)

// Notification is a user-facing message handed to the delivery collaborator.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	RefID     string           `json:"ref_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}
