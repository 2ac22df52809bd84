package engagement

import (
	"fmt"
	"time"

	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/infra/sqlite"
)

// ─── Achievement Definitions ────────────────────────────────────────────────
// Static table across six categories. Each entry carries a Requirement
// evaluated by RequirementMet; there are no per-entry closures.

var achievements = []domain.AchievementDef{
	// ── Streaks ────────────────────────────────────────────────────────
	{ID: "streak_3", Category: domain.CatStreaks, Title: "Warming Up", Description: "Keep a 3-day streak", Icon: "🔥",
		Requirement: domain.Requirement{Kind: domain.ReqStreak, Streak: 3}},
	{ID: "streak_7", Category: domain.CatStreaks, Title: "Week Warrior", Description: "Keep a 7-day streak", Icon: "📅",
		Requirement: domain.Requirement{Kind: domain.ReqStreak, Streak: 7}},
	{ID: "streak_14", Category: domain.CatStreaks, Title: "Fortnight Force", Description: "Keep a 14-day streak", Icon: "⚡",
		Requirement: domain.Requirement{Kind: domain.ReqStreak, Streak: 14}},
	{ID: "streak_30", Category: domain.CatStreaks, Title: "Monthly Machine", Description: "Keep a 30-day streak", Icon: "💪",
		Requirement: domain.Requirement{Kind: domain.ReqStreak, Streak: 30}},
	{ID: "streak_100", Category: domain.CatStreaks, Title: "Centurion", Description: "Keep a 100-day streak", Icon: "🏛️",
		Requirement: domain.Requirement{Kind: domain.ReqStreak, Streak: 100}},

	// ── Overall level ──────────────────────────────────────────────────
	{ID: "level_5", Category: domain.CatLevels, Title: "Awakened", Description: "Reach overall level 5", Icon: "🌱",
		Requirement: domain.Requirement{Kind: domain.ReqOverallLevel, Level: 5}},
	{ID: "level_10", Category: domain.CatLevels, Title: "Rising Hunter", Description: "Reach overall level 10", Icon: "⭐",
		Requirement: domain.Requirement{Kind: domain.ReqOverallLevel, Level: 10}},
	{ID: "level_25", Category: domain.CatLevels, Title: "Elite Hunter", Description: "Reach overall level 25", Icon: "🌟",
		Requirement: domain.Requirement{Kind: domain.ReqOverallLevel, Level: 25}},
	{ID: "level_50", Category: domain.CatLevels, Title: "National Level", Description: "Reach overall level 50", Icon: "👑",
		Requirement: domain.Requirement{Kind: domain.ReqOverallLevel, Level: 50}},

	// ── Task count ─────────────────────────────────────────────────────
	{ID: "first_task", Category: domain.CatTasks, Title: "First Quest", Description: "Complete your first task", Icon: "🎯",
		Requirement: domain.Requirement{Kind: domain.ReqTaskCount, Count: 1}},
	{ID: "tasks_10", Category: domain.CatTasks, Title: "Productive", Description: "Complete 10 tasks", Icon: "📋",
		Requirement: domain.Requirement{Kind: domain.ReqTaskCount, Count: 10}},
	{ID: "tasks_50", Category: domain.CatTasks, Title: "Achiever", Description: "Complete 50 tasks", Icon: "🏅",
		Requirement: domain.Requirement{Kind: domain.ReqTaskCount, Count: 50}},
	{ID: "tasks_100", Category: domain.CatTasks, Title: "Powerhouse", Description: "Complete 100 tasks", Icon: "🏆",
		Requirement: domain.Requirement{Kind: domain.ReqTaskCount, Count: 100}},
	{ID: "tasks_500", Category: domain.CatTasks, Title: "Raid Leader", Description: "Complete 500 tasks", Icon: "⚔️",
		Requirement: domain.Requirement{Kind: domain.ReqTaskCount, Count: 500}},

	// ── Single stats ───────────────────────────────────────────────────
	{ID: "discipline_10", Category: domain.CatStats, Title: "Unbreakable Will", Description: "Discipline level 10", Icon: "🧭",
		Requirement: domain.Requirement{Kind: domain.ReqStatLevel, Stat: domain.StatDiscipline, Level: 10}},
	{ID: "linguist_10", Category: domain.CatStats, Title: "Polyglot", Description: "Linguist level 10", Icon: "🗣️",
		Requirement: domain.Requirement{Kind: domain.ReqStatLevel, Stat: domain.StatLinguist, Level: 10}},
	{ID: "stamina_10", Category: domain.CatStats, Title: "Endless Stamina", Description: "Stamina level 10", Icon: "🏃",
		Requirement: domain.Requirement{Kind: domain.ReqStatLevel, Stat: domain.StatStamina, Level: 10}},
	{ID: "strength_10", Category: domain.CatStats, Title: "Iron Body", Description: "Strength level 10", Icon: "🏋️",
		Requirement: domain.Requirement{Kind: domain.ReqStatLevel, Stat: domain.StatStrength, Level: 10}},
	{ID: "intelligence_10", Category: domain.CatStats, Title: "Sharp Mind", Description: "Intelligence level 10", Icon: "🧠",
		Requirement: domain.Requirement{Kind: domain.ReqStatLevel, Stat: domain.StatIntelligence, Level: 10}},
	{ID: "concentration_10", Category: domain.CatStats, Title: "Laser Focus", Description: "Concentration level 10", Icon: "🎯",
		Requirement: domain.Requirement{Kind: domain.ReqStatLevel, Stat: domain.StatConcentration, Level: 10}},

	// ── Balance ────────────────────────────────────────────────────────
	{ID: "body_and_mind", Category: domain.CatBalance, Title: "Body and Mind", Description: "Strength and Intelligence both level 5", Icon: "☯️",
		Requirement: domain.Requirement{Kind: domain.ReqMultiStatAll, Stats: []domain.StatLevel{
			{Stat: domain.StatStrength, Level: 5},
			{Stat: domain.StatIntelligence, Level: 5},
		}}},
	{ID: "balanced_5", Category: domain.CatBalance, Title: "Balanced Hunter", Description: "Every stat at level 5", Icon: "⚖️",
		Requirement: domain.Requirement{Kind: domain.ReqAllStats, Level: 5}},
	{ID: "balanced_10", Category: domain.CatBalance, Title: "Harmony", Description: "Every stat at level 10", Icon: "🌀",
		Requirement: domain.Requirement{Kind: domain.ReqAllStats, Level: 10}},

	// ── Dedication ─────────────────────────────────────────────────────
	{ID: "days_7", Category: domain.CatDedication, Title: "Regular", Description: "Be active on 7 different days", Icon: "🗓️",
		Requirement: domain.Requirement{Kind: domain.ReqDaysActive, Days: 7}},
	{ID: "days_30", Category: domain.CatDedication, Title: "Devoted", Description: "Be active on 30 different days", Icon: "📆",
		Requirement: domain.Requirement{Kind: domain.ReqDaysActive, Days: 30}},
	{ID: "points_1000", Category: domain.CatDedication, Title: "Point Hoarder", Description: "Earn 1000 lifetime points", Icon: "💰",
		Requirement: domain.Requirement{Kind: domain.ReqLifetimePoints, Points: 1000}},
}

// AllAchievements returns a copy of the achievement table.
func AllAchievements() []domain.AchievementDef {
	out := make([]domain.AchievementDef, len(achievements))
	copy(out, achievements)
	return out
}

// FindAchievement looks up a definition by id.
func FindAchievement(id string) (domain.AchievementDef, bool) {
	for _, def := range achievements {
		if def.ID == id {
			return def, true
		}
	}
	return domain.AchievementDef{}, false
}

// AchievementNotificationID is the id of the notification created when
// the achievement unlocks. Each achievement unlocks at most once per user.
func AchievementNotificationID(achievementID string) string {
	return "ach-" + achievementID
}

// AchievementProgress returns {current, target} for display, unlocked or not.
func AchievementProgress(def domain.AchievementDef, state domain.PlayerState, today domain.Date) domain.Progress {
	return RequirementProgress(def.Requirement, state, today)
}

// EvaluateAchievements checks every definition not yet unlocked against state.
// It returns the new unlock records and one unread notification per unlock.
// Already-unlocked ids are skipped, so the unlocked set only grows.
func EvaluateAchievements(defs []domain.AchievementDef, state domain.PlayerState, unlocked []domain.UnlockedAchievement, now time.Time) ([]domain.UnlockedAchievement, []domain.AchievementNotification) {
	have := make(map[string]bool, len(unlocked))
	for _, u := range unlocked {
		have[u.ID] = true
	}

	var records []domain.UnlockedAchievement
	var notes []domain.AchievementNotification
	for _, def := range defs {
		if have[def.ID] || !RequirementMet(def.Requirement, state) {
			continue
		}
		have[def.ID] = true
		records = append(records, domain.UnlockedAchievement{ID: def.ID, UnlockedAt: now})
		notes = append(notes, domain.AchievementNotification{
			ID:            AchievementNotificationID(def.ID),
			AchievementID: def.ID,
			CreatedAt:     now,
		})
	}
	return records, notes
}

// ─── Service ────────────────────────────────────────────────────────────────

// AchievementService persists unlocks and the achievement notification queue.
type AchievementService struct {
	db          *sqlite.DB
	definitions []domain.AchievementDef
}

// NewAchievementService creates an achievement service with all definitions.
func NewAchievementService(db *sqlite.DB) *AchievementService {
	return &AchievementService{
		db:          db,
		definitions: AllAchievements(),
	}
}

// CheckAndUnlock evaluates the table against state and records new unlocks.
// Returns the definitions unlocked by this call.
func (a *AchievementService) CheckAndUnlock(userID string, state domain.PlayerState, now time.Time) ([]domain.AchievementDef, error) {
	unlocked, err := a.db.ListUnlockedAchievements(userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked: %w", err)
	}

	records, notes := EvaluateAchievements(a.definitions, state, unlocked, now)

	var newly []domain.AchievementDef
	for i, rec := range records {
		isNew, err := a.db.UnlockAchievement(userID, rec.ID, rec.UnlockedAt)
		if err != nil {
			return newly, fmt.Errorf("unlock %s: %w", rec.ID, err)
		}
		if !isNew {
			continue
		}
		if err := a.db.InsertAchievementNotification(userID, notes[i]); err != nil {
			return newly, fmt.Errorf("notify %s: %w", rec.ID, err)
		}
		def, _ := FindAchievement(rec.ID)
		newly = append(newly, def)
	}
	return newly, nil
}

// Statuses joins every definition with the user's unlock record and progress.
func (a *AchievementService) Statuses(userID string, state domain.PlayerState, today domain.Date) ([]domain.AchievementStatus, error) {
	unlocked, err := a.db.ListUnlockedAchievements(userID)
	if err != nil {
		return nil, err
	}
	at := make(map[string]time.Time, len(unlocked))
	for _, u := range unlocked {
		at[u.ID] = u.UnlockedAt
	}

	out := make([]domain.AchievementStatus, 0, len(a.definitions))
	for _, def := range a.definitions {
		ts, ok := at[def.ID]
		out = append(out, domain.AchievementStatus{
			AchievementDef: def,
			Unlocked:       ok,
			UnlockedAt:     ts,
			Progress:       AchievementProgress(def, state, today),
		})
	}
	return out, nil
}

// ListUnlocked returns all achievements the user has earned.
func (a *AchievementService) ListUnlocked(userID string) ([]domain.UnlockedAchievement, error) {
	return a.db.ListUnlockedAchievements(userID)
}

// TotalCount returns the total number of defined achievements.
func (a *AchievementService) TotalCount() int {
	return len(a.definitions)
}

// NextUnread returns the oldest unread notification, or nil.
func (a *AchievementService) NextUnread(userID string) (*domain.AchievementNotification, error) {
	return a.db.OldestUnreadAchievementNotification(userID)
}

// Notifications returns every notification not yet cleared.
func (a *AchievementService) Notifications(userID string) ([]domain.AchievementNotification, error) {
	return a.db.ListAchievementNotifications(userID)
}

// MarkRead flags a notification as seen. It remains until cleared.
func (a *AchievementService) MarkRead(userID, notificationID string) error {
	return a.db.MarkAchievementNotificationRead(userID, notificationID)
}

// Clear dismisses a notification.
func (a *AchievementService) Clear(userID, notificationID string) error {
	return a.db.ClearAchievementNotification(userID, notificationID)
}
