package challenge_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sololeveling-irl/irl/internal/app/challenge"
	"github.com/sololeveling-irl/irl/internal/app/engagement"
	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/infra/sqlite"
)

var t0 = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func player(name string, strength int) domain.PlayerState {
	st := domain.NewPlayerState(name)
	sp := st.Stats[domain.StatStrength]
	sp.Level = strength
	st.Stats[domain.StatStrength] = sp
	return st
}

func levelRace(t *testing.T) domain.Challenge {
	t.Helper()
	b := player("B", 4)
	c, err := challenge.Create(challenge.NewChallenge{
		ID: "c1", CreatorID: "a", RecipientID: "b", Type: domain.ChallengeLevel,
		Params: domain.ChallengeParams{Stat: domain.StatStrength, TargetLevel: 10},
	}, player("A", 3), &b, t0)
	require.NoError(t, err)
	return c
}

// ═══════════════════════════════════════════════════════════════════════════
// Engine
// ═══════════════════════════════════════════════════════════════════════════

func TestCreate_LevelRaceSnapshots(t *testing.T) {
	c := levelRace(t)
	assert.Equal(t, domain.ChallengePending, c.Status)
	assert.Equal(t, []string{"a", "b"}, c.Participants)
	assert.Equal(t, "Strength Champion", c.Title)
	assert.Equal(t, "strength_champion", c.TitleID)
	assert.Equal(t, 3, c.Progress["a"].StartLevel)
	assert.Equal(t, 4, c.Progress["b"].StartLevel)
}

func TestCreate_WeeklySetsEndDate(t *testing.T) {
	b := player("B", 1)
	c, err := challenge.Create(challenge.NewChallenge{
		ID: "w", CreatorID: "a", RecipientID: "b", Type: domain.ChallengeWeekly,
	}, player("A", 1), &b, t0)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(7*24*time.Hour), c.Params.EndDate)
	assert.Equal(t, 0, c.Progress["a"].Points)
	assert.Equal(t, "Weekly Champion", c.Title)
}

func TestCreate_Rejects(t *testing.T) {
	b := player("B", 1)
	a := player("A", 1)

	_, err := challenge.Create(challenge.NewChallenge{ID: "x", CreatorID: "a", RecipientID: "ghost", Type: domain.ChallengeStreak}, a, nil, t0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = challenge.Create(challenge.NewChallenge{ID: "x", CreatorID: "a", RecipientID: "a", Type: domain.ChallengeStreak}, a, &b, t0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = challenge.Create(challenge.NewChallenge{ID: "x", CreatorID: "a", RecipientID: "b", Type: "POINT_RACE"}, a, &b, t0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = challenge.Create(challenge.NewChallenge{ID: "x", CreatorID: "a", RecipientID: "b", Type: domain.ChallengeLevel,
		Params: domain.ChallengeParams{Stat: "charisma", TargetLevel: 5}}, a, &b, t0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAccept_OnlyRecipientFromPending(t *testing.T) {
	c := levelRace(t)

	_, err := challenge.Accept(c, "a", player("A", 3), t0)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	active, err := challenge.Accept(c, "b", player("B", 6), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeActive, active.Status)
	assert.Equal(t, 6, active.Progress["b"].StartLevel, "re-snapshot at acceptance")
	assert.Equal(t, 4, c.Progress["b"].StartLevel, "input not mutated")

	_, err = challenge.Accept(active, "b", player("B", 6), t0)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestDeclineAndCancel(t *testing.T) {
	c := levelRace(t)

	_, err := challenge.Decline(c, "a", t0)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	declined, err := challenge.Decline(c, "b", t0)
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeDeclined, declined.Status)
	assert.True(t, declined.Status.IsTerminal())

	_, err = challenge.Cancel(declined, "a", t0)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = challenge.Cancel(c, "stranger", t0)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	canceled, err := challenge.Cancel(c, "a", t0)
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeCanceled, canceled.Status)
	assert.Empty(t, canceled.Winner)
}

func TestUpdateProgress_LevelRaceUpdaterWins(t *testing.T) {
	c, err := challenge.Accept(levelRace(t), "b", player("B", 4), t0)
	require.NoError(t, err)

	c, err = challenge.UpdateProgress(c, "a", challenge.Update{Level: 9}, t0)
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeActive, c.Status)

	c, err = challenge.UpdateProgress(c, "a", challenge.Update{Level: 10}, t0)
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeCompleted, c.Status)
	assert.Equal(t, "a", c.Winner)

	_, err = challenge.UpdateProgress(c, "b", challenge.Update{Level: 12}, t0)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestUpdateProgress_RequiresActiveParticipant(t *testing.T) {
	c := levelRace(t)
	_, err := challenge.UpdateProgress(c, "a", challenge.Update{Level: 10}, t0)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	active, _ := challenge.Accept(c, "b", player("B", 4), t0)
	_, err = challenge.UpdateProgress(active, "z", challenge.Update{Level: 10}, t0)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestUpdateProgress_StreakTarget(t *testing.T) {
	b := player("B", 1)
	c, err := challenge.Create(challenge.NewChallenge{
		ID: "s", CreatorID: "a", RecipientID: "b", Type: domain.ChallengeStreak,
		Params: domain.ChallengeParams{TargetStreak: 5},
	}, player("A", 1), &b, t0)
	require.NoError(t, err)
	c, _ = challenge.Accept(c, "b", b, t0)

	c, err = challenge.UpdateProgress(c, "b", challenge.Update{Streak: 4}, t0)
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeActive, c.Status)
	assert.Equal(t, 4, c.Progress["b"].Streak)

	c, err = challenge.UpdateProgress(c, "b", challenge.Update{Streak: 5}, t0)
	require.NoError(t, err)
	assert.Equal(t, "b", c.Winner)
	assert.Equal(t, "Streak Master", c.Title)
}

func TestUpdateProgress_StreakWithoutTargetNeverResolves(t *testing.T) {
	b := player("B", 1)
	c, _ := challenge.Create(challenge.NewChallenge{ID: "s", CreatorID: "a", RecipientID: "b", Type: domain.ChallengeStreak}, player("A", 1), &b, t0)
	c, _ = challenge.Accept(c, "b", b, t0)
	c, err := challenge.UpdateProgress(c, "a", challenge.Update{Streak: 365}, t0)
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeActive, c.Status)
}

func TestUpdateProgress_WeeklyResolvesAtEndDate(t *testing.T) {
	b := player("B", 1)
	c, _ := challenge.Create(challenge.NewChallenge{ID: "w", CreatorID: "a", RecipientID: "b", Type: domain.ChallengeWeekly}, player("A", 1), &b, t0)
	c, _ = challenge.Accept(c, "b", b, t0)

	c, _ = challenge.UpdateProgress(c, "a", challenge.Update{Points: 40}, t0.Add(24*time.Hour))
	assert.Equal(t, domain.ChallengeActive, c.Status)

	end := c.Params.EndDate
	c, _ = challenge.UpdateProgress(c, "b", challenge.Update{Points: 55}, end)
	assert.Equal(t, domain.ChallengeCompleted, c.Status)
	assert.Equal(t, "b", c.Winner)
}

func TestUpdateProgress_WeeklyTieHasNoWinner(t *testing.T) {
	b := player("B", 1)
	c, _ := challenge.Create(challenge.NewChallenge{ID: "w", CreatorID: "a", RecipientID: "b", Type: domain.ChallengeWeekly}, player("A", 1), &b, t0)
	c, _ = challenge.Accept(c, "b", b, t0)
	c, _ = challenge.UpdateProgress(c, "a", challenge.Update{Points: 30}, t0)
	c, _ = challenge.UpdateProgress(c, "b", challenge.Update{Points: 30}, c.Params.EndDate.Add(time.Hour))

	assert.Equal(t, domain.ChallengeCompleted, c.Status)
	assert.Empty(t, c.Winner)
}

func TestUpdateFromState(t *testing.T) {
	c, _ := challenge.Accept(levelRace(t), "b", player("B", 4), t0)
	st := player("A", 7)
	st.Streak = domain.Streak{Current: 3, Longest: 3, LastCompletionDate: domain.DateOf(t0)}
	st.CompletedTasks = []domain.CompletedTask{
		{CompletedAt: t0.Add(-time.Hour), Points: 100},
		{CompletedAt: t0.Add(time.Hour), Points: 5},
	}

	u := challenge.UpdateFromState(c, st, t0.Add(2*time.Hour))
	assert.Equal(t, 7, u.Level)
	assert.Equal(t, 3, u.Streak)
	assert.Equal(t, 5, u.Points)
}

func TestRank_Ordering(t *testing.T) {
	rich := player("Zed", 1)
	sp := rich.Stats[domain.StatStamina]
	sp.LifetimePoints = 500
	rich.Stats[domain.StatStamina] = sp

	high := player("Amy", 30)
	low := player("Bob", 1)
	alsoLow := player("Al", 1)

	got := challenge.Rank(map[string]domain.PlayerState{
		"1": low, "2": high, "3": rich, "4": alsoLow,
	}, domain.DateOf(t0), 0)

	require.Len(t, got, 4)
	assert.Equal(t, "3", got[0].UserID)
	assert.Equal(t, "2", got[1].UserID)
	assert.Equal(t, "Al", got[2].PlayerName)
	assert.Equal(t, "Bob", got[3].PlayerName)
	assert.Equal(t, 4, got[3].Rank)

	assert.Len(t, challenge.Rank(map[string]domain.PlayerState{"1": low, "2": high}, domain.DateOf(t0), 1), 1)
}

// ═══════════════════════════════════════════════════════════════════════════
// Service
// ═══════════════════════════════════════════════════════════════════════════

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]domain.Notification
}

func (r *recordingNotifier) Send(_ context.Context, target string, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = make(map[string][]domain.Notification)
	}
	r.sent[target] = append(r.sent[target], n)
	return nil
}

func (r *recordingNotifier) types(target string) []domain.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.NotificationType
	for _, n := range r.sent[target] {
		out = append(out, n.Type)
	}
	return out
}

type fixture struct {
	svc     *challenge.Service
	db      *sqlite.DB
	titles  *engagement.TitleService
	players *engagement.PlayerService
	notify  *recordingNotifier
	clock   *domain.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := domain.NewFakeClock(t0)
	players := engagement.NewPlayerService(engagement.PlayerServiceConfig{Store: db, Clock: clock})
	titles := engagement.NewTitleService(db)
	notify := &recordingNotifier{}

	_, err = players.Ensure("a", "Alice")
	require.NoError(t, err)
	_, err = players.Ensure("b", "Bruno")
	require.NoError(t, err)

	svc := challenge.NewService(challenge.Config{DB: db, Players: players, Titles: titles, Notifier: notify})
	return fixture{svc: svc, db: db, titles: titles, players: players, notify: notify, clock: clock}
}

func TestService_LevelRaceAwardsTitleOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, "a", "b", domain.ChallengeLevel, domain.ChallengeParams{Stat: domain.StatStrength, TargetLevel: 10})
	require.NoError(t, err)
	assert.Equal(t, []domain.NotificationType{domain.NotifyChallengeCreated}, f.notify.types("b"))

	_, err = f.svc.Accept(ctx, c.ID, "b")
	require.NoError(t, err)

	done, err := f.svc.UpdateProgress(ctx, c.ID, "a", challenge.Update{Level: 10})
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeCompleted, done.Status)
	assert.Equal(t, "a", done.Winner)

	// Replaying the update is rejected and does not award again.
	_, err = f.svc.UpdateProgress(ctx, c.ID, "a", challenge.Update{Level: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	rec, err := f.titles.Record("a")
	require.NoError(t, err)
	count := 0
	for _, id := range rec.Titles {
		if id == "strength_champion" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	isNew, err := f.titles.Award("a", "strength_champion", t0)
	require.NoError(t, err)
	assert.False(t, isNew)

	loser, _ := f.titles.Record("b")
	assert.False(t, loser.Has("strength_champion"))

	assert.Contains(t, f.notify.types("a"), domain.NotifyChallengeComplete)
	assert.Contains(t, f.notify.types("b"), domain.NotifyChallengeComplete)
}

func TestService_RecipientMustExist(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), "a", "nobody", domain.ChallengeStreak, domain.ChallengeParams{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.svc.List("a")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_RejectedTransitionStoresNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, "a", "b", domain.ChallengeStreak, domain.ChallengeParams{})
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, c.ID, "a")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	got, err := f.svc.Get("b", c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengePending, got.Status)

	_, err = f.svc.Get("stranger", c.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = f.svc.Accept(ctx, "missing", "b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_DeclineNotifiesCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, _ := f.svc.Create(ctx, "a", "b", domain.ChallengeWeekly, domain.ChallengeParams{})

	got, err := f.svc.Decline(ctx, c.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeDeclined, got.Status)
	assert.Equal(t, []domain.NotificationType{domain.NotifyChallengeDeclined}, f.notify.types("a"))
}

func TestService_SyncWeeklyFromState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, _ := f.svc.Create(ctx, "a", "b", domain.ChallengeWeekly, domain.ChallengeParams{})
	_, err := f.svc.Accept(ctx, c.ID, "b")
	require.NoError(t, err)

	res, err := f.players.AddTask(ctx, "b", "Run", domain.StatStamina, domain.TaskMilestone, "")
	require.NoError(t, err)
	_, err = f.players.CompleteTask(ctx, "b", res.Added.ID)
	require.NoError(t, err)

	mid, err := f.svc.Sync(ctx, c.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeActive, mid.Status)
	assert.Equal(t, 8, mid.Progress["b"].Points)

	f.clock.AdvanceDays(8)
	done, err := f.svc.Sync(ctx, c.ID, "a")
	require.NoError(t, err)

	assert.Equal(t, domain.ChallengeCompleted, done.Status)
	assert.Equal(t, "b", done.Winner)

	rec, _ := f.titles.Record("b")
	assert.True(t, rec.Has("weekly_champion"))
}

func TestService_Leaderboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.players.AddTask(ctx, "b", "Lift", domain.StatStrength, domain.TaskMajor, "")
	require.NoError(t, err)
	_, err = f.players.CompleteTask(ctx, "b", res.Added.ID)
	require.NoError(t, err)

	board, err := f.svc.Leaderboard(0)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "b", board[0].UserID)
	assert.Equal(t, 5, board[0].LifetimePoints)
	assert.Equal(t, 1, board[0].Rank)
}
