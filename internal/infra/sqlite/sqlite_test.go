package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sololeveling-irl/irl/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "state.db")); os.IsNotExist(err) {
		t.Error("state.db should exist")
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		db, err := Open(dir)
		if err != nil {
			t.Fatalf("Open() #%d error: %v", i+1, err)
		}
		db.Close()
	}
}

// ─── Players ────────────────────────────────────────────────────────────────

func TestLoadPlayer_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.LoadPlayer("ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("LoadPlayer() error = %v, want ErrNotFound", err)
	}
}

func TestSavePlayer_RoundTrip(t *testing.T) {
	db := newTestDB(t)

	state := domain.NewPlayerState("Jinwoo")
	sp := state.Stats[domain.StatStrength]
	sp.Level, sp.Points, sp.LifetimePoints = 3, 4, 29
	state.Stats[domain.StatStrength] = sp
	state.Streak = domain.Streak{Current: 5, Longest: 9, LastCompletionDate: "2026-03-02"}
	state.Tasks = append(state.Tasks, domain.PendingTask{
		ID: "t1", Name: "Push-ups", Stat: domain.StatStrength, Type: domain.TaskRegular,
	})

	if err := db.SavePlayer("u1", state); err != nil {
		t.Fatalf("SavePlayer() error: %v", err)
	}
	got, err := db.LoadPlayer("u1")
	if err != nil {
		t.Fatalf("LoadPlayer() error: %v", err)
	}
	if got.PlayerName != "Jinwoo" {
		t.Errorf("PlayerName = %q, want Jinwoo", got.PlayerName)
	}
	if got.Stats[domain.StatStrength].Level != 3 || got.Stats[domain.StatStrength].LifetimePoints != 29 {
		t.Errorf("strength = %+v", got.Stats[domain.StatStrength])
	}
	if got.Streak.Current != 5 || got.Streak.LastCompletionDate != "2026-03-02" {
		t.Errorf("Streak = %+v", got.Streak)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "t1" {
		t.Errorf("Tasks = %+v", got.Tasks)
	}
}

func TestSavePlayer_Overwrites(t *testing.T) {
	db := newTestDB(t)
	db.SavePlayer("u1", domain.NewPlayerState("A"))
	db.SavePlayer("u1", domain.NewPlayerState("B"))

	got, _ := db.LoadPlayer("u1")
	if got.PlayerName != "B" {
		t.Errorf("PlayerName = %q, want B (last writer wins)", got.PlayerName)
	}
	ids, _ := db.PlayerIDs()
	if len(ids) != 1 {
		t.Errorf("PlayerIDs() = %v, want one id", ids)
	}
}

func TestPlayerExists(t *testing.T) {
	db := newTestDB(t)
	if ok, _ := db.PlayerExists("u1"); ok {
		t.Error("PlayerExists() should be false before save")
	}
	db.SavePlayer("u1", domain.NewPlayerState("A"))
	if ok, _ := db.PlayerExists("u1"); !ok {
		t.Error("PlayerExists() should be true after save")
	}
}

// ─── Schedules ──────────────────────────────────────────────────────────────

func TestRules_CRUD(t *testing.T) {
	db := newTestDB(t)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	rule := domain.RecurringRule{
		ID: "r1", Name: "Read", Stat: domain.StatIntelligence, Type: domain.TaskSimple,
		Frequency:  domain.FrequencySpecificDays,
		DaysOfWeek: []time.Weekday{time.Monday, time.Thursday},
		CreatedAt:  created,
	}
	if err := db.InsertRule("u1", rule); err != nil {
		t.Fatalf("InsertRule() error: %v", err)
	}
	if err := db.CommitDaily("u1", "2026-03-02", []string{"r1"}, nil); err != nil {
		t.Fatalf("CommitDaily() error: %v", err)
	}

	rules, err := db.ListRules("u1")
	if err != nil {
		t.Fatalf("ListRules() error: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("ListRules() = %d rules, want 1", len(rules))
	}
	got := rules[0]
	if got.LastGenerated != "2026-03-02" {
		t.Errorf("LastGenerated = %q", got.LastGenerated)
	}
	if len(got.DaysOfWeek) != 2 || got.DaysOfWeek[1] != time.Thursday {
		t.Errorf("DaysOfWeek = %v", got.DaysOfWeek)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}

	if other, _ := db.ListRules("u2"); len(other) != 0 {
		t.Errorf("rules leaked across users: %v", other)
	}

	if err := db.DeleteRule("u1", "r1"); err != nil {
		t.Fatalf("DeleteRule() error: %v", err)
	}
	if err := db.DeleteRule("u1", "r1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeleteRule() error = %v, want ErrNotFound", err)
	}
}

func TestScheduled_OrderedByDate(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	db.InsertScheduled("u1", domain.ScheduledTask{ID: "b", Name: "Later", Stat: domain.StatStamina, Type: domain.TaskMajor, ScheduledDate: "2026-05-10", CreatedAt: now})
	db.InsertScheduled("u1", domain.ScheduledTask{ID: "a", Name: "Sooner", Stat: domain.StatStamina, Type: domain.TaskMajor, ScheduledDate: "2026-05-01", CreatedAt: now})

	list, err := db.ListScheduled("u1")
	if err != nil {
		t.Fatalf("ListScheduled() error: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a" {
		t.Errorf("ListScheduled() = %+v, want a first", list)
	}
	if err := db.DeleteScheduled("u1", "a"); err != nil {
		t.Fatalf("DeleteScheduled() error: %v", err)
	}
	list, _ = db.ListScheduled("u1")
	if len(list) != 1 {
		t.Errorf("after delete: %d scheduled, want 1", len(list))
	}
}

func TestCommitDaily_AllOrNothing(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	db.InsertRule("u1", domain.RecurringRule{ID: "r1", Name: "Read", Stat: domain.StatIntelligence, Type: domain.TaskSimple, Frequency: domain.FrequencyDaily, CreatedAt: now})
	db.InsertScheduled("u1", domain.ScheduledTask{ID: "s1", Name: "Exam", Stat: domain.StatIntelligence, Type: domain.TaskMilestone, ScheduledDate: "2026-03-02", CreatedAt: now})

	if _, err := db.db.Exec(`CREATE TRIGGER block_scheduled_delete BEFORE DELETE ON scheduled_tasks
		BEGIN SELECT RAISE(ABORT, 'disk full'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}
	if err := db.CommitDaily("u1", "2026-03-02", []string{"r1"}, []string{"s1"}); err == nil {
		t.Fatal("CommitDaily() should fail when the delete aborts")
	}
	rules, _ := db.ListRules("u1")
	if len(rules) != 1 || rules[0].LastGenerated != "" {
		t.Errorf("rule marked despite rollback: %+v", rules)
	}

	if _, err := db.db.Exec(`DROP TRIGGER block_scheduled_delete`); err != nil {
		t.Fatalf("drop trigger: %v", err)
	}
	if err := db.CommitDaily("u1", "2026-03-02", []string{"r1"}, []string{"s1"}); err != nil {
		t.Fatalf("CommitDaily() error: %v", err)
	}
	rules, _ = db.ListRules("u1")
	if rules[0].LastGenerated != "2026-03-02" {
		t.Errorf("LastGenerated = %q", rules[0].LastGenerated)
	}
	if list, _ := db.ListScheduled("u1"); len(list) != 0 {
		t.Errorf("scheduled task not removed: %+v", list)
	}
}

func TestTemplates_CRUD(t *testing.T) {
	db := newTestDB(t)
	tpl := domain.TaskTemplate{ID: "tp1", Name: "Journal", Stat: domain.StatDiscipline, Type: domain.TaskSimple, Category: domain.TemplateFavorites}
	if err := db.InsertTemplate("u1", tpl); err != nil {
		t.Fatalf("InsertTemplate() error: %v", err)
	}
	list, _ := db.ListTemplates("u1")
	if len(list) != 1 || list[0] != tpl {
		t.Errorf("ListTemplates() = %+v", list)
	}
	if err := db.DeleteTemplate("u1", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteTemplate(missing) error = %v, want ErrNotFound", err)
	}
}

// ─── Achievements & Titles ──────────────────────────────────────────────────

func TestUnlockAchievement_Idempotent(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	isNew, err := db.UnlockAchievement("u1", "first_task", now)
	if err != nil || !isNew {
		t.Fatalf("first unlock: isNew=%v err=%v", isNew, err)
	}
	isNew, err = db.UnlockAchievement("u1", "first_task", now.Add(time.Hour))
	if err != nil || isNew {
		t.Errorf("second unlock: isNew=%v err=%v, want false/nil", isNew, err)
	}

	list, _ := db.ListUnlockedAchievements("u1")
	if len(list) != 1 {
		t.Errorf("ListUnlockedAchievements() = %d, want 1", len(list))
	}
	if list[0].UnlockedAt.Unix() != now.Unix() {
		t.Error("second unlock must not move unlocked_at")
	}
}

func TestAchievementNotifications_ReadAndClearIndependent(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	db.InsertAchievementNotification("u1", domain.AchievementNotification{ID: "n2", AchievementID: "b", CreatedAt: base.Add(time.Minute)})
	db.InsertAchievementNotification("u1", domain.AchievementNotification{ID: "n1", AchievementID: "a", CreatedAt: base})

	next, err := db.OldestUnreadAchievementNotification("u1")
	if err != nil || next == nil || next.ID != "n1" {
		t.Fatalf("oldest unread = %+v, err=%v; want n1", next, err)
	}

	if err := db.MarkAchievementNotificationRead("u1", "n1"); err != nil {
		t.Fatalf("MarkAchievementNotificationRead() error: %v", err)
	}
	next, _ = db.OldestUnreadAchievementNotification("u1")
	if next == nil || next.ID != "n2" {
		t.Errorf("after read, oldest unread = %+v, want n2", next)
	}

	// Read notifications stay listed until cleared.
	all, _ := db.ListAchievementNotifications("u1")
	if len(all) != 2 {
		t.Errorf("listed = %d, want 2", len(all))
	}

	db.ClearAchievementNotification("u1", "n1")
	all, _ = db.ListAchievementNotifications("u1")
	if len(all) != 1 || all[0].ID != "n2" {
		t.Errorf("after clear = %+v", all)
	}
}

func TestTitles_AwardAndSelect(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	if ok, _ := db.AwardTitle("u1", "weekly_champion", now); !ok {
		t.Error("first award should be new")
	}
	if ok, _ := db.AwardTitle("u1", "weekly_champion", now); ok {
		t.Error("repeat award should not be new")
	}
	if err := db.SelectTitle("u1", "weekly_champion"); err != nil {
		t.Fatalf("SelectTitle() error: %v", err)
	}

	rec, err := db.TitleRecord("u1")
	if err != nil {
		t.Fatalf("TitleRecord() error: %v", err)
	}
	if len(rec.Titles) != 1 || rec.Selected != "weekly_champion" {
		t.Errorf("TitleRecord() = %+v", rec)
	}

	db.ClearSelectedTitle("u1")
	rec, _ = db.TitleRecord("u1")
	if rec.Selected != "" {
		t.Errorf("Selected = %q after clear", rec.Selected)
	}
}

func TestNotifications_Inbox(t *testing.T) {
	db := newTestDB(t)
	n := domain.Notification{ID: "x1", UserID: "u1", Type: domain.NotifyLevelUp, Title: "Level up", Message: "Strength 2", CreatedAt: time.Now()}
	if err := db.InsertNotification(n); err != nil {
		t.Fatalf("InsertNotification() error: %v", err)
	}
	pending, _ := db.ListPendingNotifications("u1", 10)
	if len(pending) != 1 || pending[0].RefID != "" {
		t.Fatalf("pending = %+v", pending)
	}
	db.MarkNotificationShown("u1", "x1")
	pending, _ = db.ListPendingNotifications("u1", 10)
	if len(pending) != 0 {
		t.Errorf("pending after shown = %d, want 0", len(pending))
	}
}

// ─── Challenges ─────────────────────────────────────────────────────────────

func TestChallenges_InsertUpdateList(t *testing.T) {
	db := newTestDB(t)
	created := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	c := domain.Challenge{
		ID: "c1", Type: domain.ChallengeLevel, Status: domain.ChallengePending,
		CreatorID: "a", RecipientID: "b", Participants: []string{"a", "b"},
		Params:   domain.ChallengeParams{Stat: domain.StatStrength, TargetLevel: 10},
		Progress: map[string]domain.ParticipantProgress{"a": {StartLevel: 4, CurrentLevel: 4}},
		Title:    "Strength Champion", TitleID: "strength_champion",
		CreatedAt: created,
	}
	if err := db.InsertChallenge(c); err != nil {
		t.Fatalf("InsertChallenge() error: %v", err)
	}

	c.Status = domain.ChallengeCompleted
	c.Winner = "a"
	c.CompletedAt = created.Add(time.Hour)
	if err := db.UpdateChallenge(c); err != nil {
		t.Fatalf("UpdateChallenge() error: %v", err)
	}

	got, err := db.GetChallenge("c1")
	if err != nil {
		t.Fatalf("GetChallenge() error: %v", err)
	}
	if got.Status != domain.ChallengeCompleted || got.Winner != "a" {
		t.Errorf("got %+v", got)
	}
	if got.Params.TargetLevel != 10 || got.Progress["a"].StartLevel != 4 {
		t.Errorf("params/progress not round-tripped: %+v %+v", got.Params, got.Progress)
	}
	if !got.StartedAt.IsZero() {
		t.Error("StartedAt should stay zero")
	}

	for _, user := range []string{"a", "b"} {
		list, _ := db.ListChallenges(user)
		if len(list) != 1 {
			t.Errorf("ListChallenges(%s) = %d, want 1", user, len(list))
		}
	}
	if list, _ := db.ListChallenges("c"); len(list) != 0 {
		t.Errorf("ListChallenges(c) = %d, want 0", len(list))
	}

	if _, err := db.GetChallenge("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetChallenge(nope) error = %v, want ErrNotFound", err)
	}
}
