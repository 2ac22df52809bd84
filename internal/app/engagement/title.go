package engagement

import (
	"fmt"
	"time"

	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/infra/sqlite"
)

// ─── Title Definitions ──────────────────────────────────────────────────────

func statTitle(id, name string, stat domain.StatID, level int, rarity domain.Rarity, icon string) domain.TitleDef {
	return domain.TitleDef{
		ID:           id,
		Name:         name,
		Description:  fmt.Sprintf("Reach %s level %d", stat.DisplayName(), level),
		Category:     domain.TitleCatStat,
		Rarity:       rarity,
		Icon:         icon,
		Requirements: domain.Requirement{Kind: domain.ReqStatLevel, Stat: stat, Level: level},
	}
}

func championTitle(stat domain.StatID) domain.TitleDef {
	return domain.TitleDef{
		ID:           ChallengeTitleID(domain.ChallengeLevel, stat),
		Name:         ChallengeTitleName(domain.ChallengeLevel, stat),
		Description:  fmt.Sprintf("Win a %s level race", stat.DisplayName()),
		Category:     domain.TitleCatChallenge,
		Rarity:       domain.RarityEpic,
		Icon:         "🏆",
		Requirements: domain.Requirement{Kind: domain.ReqChallengeWin, ChallengeType: domain.ChallengeLevel},
	}
}

var titles = buildTitles()

func buildTitles() []domain.TitleDef {
	defs := []domain.TitleDef{
		statTitle("iron_will", "Iron Will", domain.StatDiscipline, 15, domain.RarityUncommon, "🧭"),
		statTitle("silver_tongue", "Silver Tongue", domain.StatLinguist, 15, domain.RarityUncommon, "🗣️"),
		statTitle("marathoner", "Marathoner", domain.StatStamina, 15, domain.RarityUncommon, "🏃"),
		statTitle("iron_fist", "Iron Fist", domain.StatStrength, 15, domain.RarityUncommon, "👊"),
		statTitle("scholar", "Scholar", domain.StatIntelligence, 15, domain.RarityUncommon, "📚"),
		statTitle("zen_master", "Zen Master", domain.StatConcentration, 15, domain.RarityUncommon, "🧘"),
		statTitle("shadow_monarch", "Shadow Monarch", domain.StatStrength, 50, domain.RarityLegendary, "🌑"),

		{ID: "warrior_scholar", Name: "Warrior Scholar", Description: "Strength and Intelligence both level 10",
			Category: domain.TitleCatBalance, Rarity: domain.RarityRare, Icon: "⚔️",
			Requirements: domain.Requirement{Kind: domain.ReqMultiStatAll, Stats: []domain.StatLevel{
				{Stat: domain.StatStrength, Level: 10},
				{Stat: domain.StatIntelligence, Level: 10},
			}}},
		{ID: "monk", Name: "Monk", Description: "Discipline and Concentration both level 10",
			Category: domain.TitleCatBalance, Rarity: domain.RarityRare, Icon: "🕉️",
			Requirements: domain.Requirement{Kind: domain.ReqMultiStatAll, Stats: []domain.StatLevel{
				{Stat: domain.StatDiscipline, Level: 10},
				{Stat: domain.StatConcentration, Level: 10},
			}}},
		{ID: "renaissance", Name: "Renaissance Hunter", Description: "Every stat at level 10",
			Category: domain.TitleCatBalance, Rarity: domain.RarityEpic, Icon: "🌈",
			Requirements: domain.Requirement{Kind: domain.ReqAllStats, Level: 10}},
		{ID: "perfect_balance", Name: "Perfect Balance", Description: "Every stat at level 25",
			Category: domain.TitleCatBalance, Rarity: domain.RarityLegendary, Icon: "☯️",
			Requirements: domain.Requirement{Kind: domain.ReqAllStats, Level: 25}},

		{ID: "consistent", Name: "Consistent", Description: "Keep a 7-day streak",
			Category: domain.TitleCatStreak, Rarity: domain.RarityCommon, Icon: "🔥",
			Requirements: domain.Requirement{Kind: domain.ReqStreak, Streak: 7}},
		{ID: "unstoppable", Name: "Unstoppable", Description: "Keep a 30-day streak",
			Category: domain.TitleCatStreak, Rarity: domain.RarityRare, Icon: "🚂",
			Requirements: domain.Requirement{Kind: domain.ReqStreak, Streak: 30}},
		{ID: "eternal_flame", Name: "Eternal Flame", Description: "Keep a 100-day streak",
			Category: domain.TitleCatStreak, Rarity: domain.RarityLegendary, Icon: "☀️",
			Requirements: domain.Requirement{Kind: domain.ReqStreak, Streak: 100}},

		{ID: "novice", Name: "Novice", Description: "Complete 10 tasks",
			Category: domain.TitleCatTasks, Rarity: domain.RarityCommon, Icon: "🌱",
			Requirements: domain.Requirement{Kind: domain.ReqTaskCount, Count: 10}},
		{ID: "taskmaster", Name: "Taskmaster", Description: "Complete 250 tasks",
			Category: domain.TitleCatTasks, Rarity: domain.RarityEpic, Icon: "📜",
			Requirements: domain.Requirement{Kind: domain.ReqTaskCount, Count: 250}},

		{ID: "dedicated", Name: "Dedicated", Description: "Be active on 30 different days",
			Category: domain.TitleCatDedicated, Rarity: domain.RarityUncommon, Icon: "🗓️",
			Requirements: domain.Requirement{Kind: domain.ReqDaysActive, Days: 30}},
		{ID: "veteran", Name: "Veteran", Description: "Be active on 180 different days",
			Category: domain.TitleCatDedicated, Rarity: domain.RarityEpic, Icon: "🎖️",
			Requirements: domain.Requirement{Kind: domain.ReqDaysActive, Days: 180}},

		{ID: ChallengeTitleID(domain.ChallengeStreak, ""), Name: ChallengeTitleName(domain.ChallengeStreak, ""),
			Description: "Win a streak competition",
			Category:    domain.TitleCatChallenge, Rarity: domain.RarityEpic, Icon: "🔥",
			Requirements: domain.Requirement{Kind: domain.ReqChallengeWin, ChallengeType: domain.ChallengeStreak}},
		{ID: ChallengeTitleID(domain.ChallengeWeekly, ""), Name: ChallengeTitleName(domain.ChallengeWeekly, ""),
			Description: "Win a weekly leaderboard",
			Category:    domain.TitleCatChallenge, Rarity: domain.RarityEpic, Icon: "🥇",
			Requirements: domain.Requirement{Kind: domain.ReqChallengeWin, ChallengeType: domain.ChallengeWeekly}},
	}
	for _, stat := range domain.AllStats {
		defs = append(defs, championTitle(stat))
	}
	return defs
}

// AllTitles returns a copy of the title table.
func AllTitles() []domain.TitleDef {
	out := make([]domain.TitleDef, len(titles))
	copy(out, titles)
	return out
}

// FindTitle looks up a title by id.
func FindTitle(id string) (domain.TitleDef, bool) {
	for _, t := range titles {
		if t.ID == id {
			return t, true
		}
	}
	return domain.TitleDef{}, false
}

// ChallengeTitleID is the title id awarded for winning a challenge.
func ChallengeTitleID(t domain.ChallengeType, stat domain.StatID) string {
	switch t {
	case domain.ChallengeStreak:
		return "streak_master"
	case domain.ChallengeLevel:
		return string(stat) + "_champion"
	case domain.ChallengeWeekly:
		return "weekly_champion"
	default:
		return ""
	}
}

// ChallengeTitleName is the prize title shown for a challenge.
func ChallengeTitleName(t domain.ChallengeType, stat domain.StatID) string {
	switch t {
	case domain.ChallengeStreak:
		return "Streak Master"
	case domain.ChallengeLevel:
		return stat.DisplayName() + " Champion"
	case domain.ChallengeWeekly:
		return "Weekly Champion"
	default:
		return ""
	}
}

// EligibleTitles returns the titles whose requirements state meets.
// Challenge-win titles are never returned: only the challenge engine grants them.
func EligibleTitles(defs []domain.TitleDef, state domain.PlayerState) []domain.TitleDef {
	var out []domain.TitleDef
	for _, def := range defs {
		if def.Requirements.Kind == domain.ReqChallengeWin {
			continue
		}
		if RequirementMet(def.Requirements, state) {
			out = append(out, def)
		}
	}
	return out
}

// ─── Service ────────────────────────────────────────────────────────────────

// TitleService persists earned titles and the selected title.
type TitleService struct {
	db          *sqlite.DB
	definitions []domain.TitleDef
}

// NewTitleService creates a title service with all definitions.
func NewTitleService(db *sqlite.DB) *TitleService {
	return &TitleService{db: db, definitions: AllTitles()}
}

// Definitions returns the title table for display.
func (s *TitleService) Definitions() []domain.TitleDef {
	return s.definitions
}

// CheckAndGrant awards every eligible title the user does not hold yet.
// Returns the titles granted by this call.
func (s *TitleService) CheckAndGrant(userID string, state domain.PlayerState, now time.Time) ([]domain.TitleDef, error) {
	rec, err := s.db.TitleRecord(userID)
	if err != nil {
		return nil, fmt.Errorf("title record: %w", err)
	}

	var granted []domain.TitleDef
	for _, def := range EligibleTitles(s.definitions, state) {
		if rec.Has(def.ID) {
			continue
		}
		isNew, err := s.db.AwardTitle(userID, def.ID, now)
		if err != nil {
			return granted, fmt.Errorf("award %s: %w", def.ID, err)
		}
		if isNew {
			granted = append(granted, def)
		}
	}
	return granted, nil
}

// Award grants a title directly. Idempotent: returns false when already held.
func (s *TitleService) Award(userID, titleID string, now time.Time) (bool, error) {
	if titleID == "" {
		return false, &domain.ValidationError{Field: "title_id", Reason: "required"}
	}
	return s.db.AwardTitle(userID, titleID, now)
}

// Record returns the user's earned titles and selection.
func (s *TitleService) Record(userID string) (domain.TitleRecord, error) {
	return s.db.TitleRecord(userID)
}

// Select displays an earned title. Fails with ErrNotEligible otherwise.
func (s *TitleService) Select(userID, titleID string) (domain.TitleRecord, error) {
	rec, err := s.db.TitleRecord(userID)
	if err != nil {
		return rec, err
	}
	next, err := rec.Select(titleID)
	if err != nil {
		return rec, err
	}
	if err := s.db.SelectTitle(userID, titleID); err != nil {
		return rec, err
	}
	return next, nil
}

// Deselect clears the displayed title.
func (s *TitleService) Deselect(userID string) (domain.TitleRecord, error) {
	rec, err := s.db.TitleRecord(userID)
	if err != nil {
		return rec, err
	}
	if err := s.db.ClearSelectedTitle(userID); err != nil {
		return rec, err
	}
	return rec.Deselect(), nil
}
