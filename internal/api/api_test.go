package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sololeveling-irl/irl/internal/app/challenge"
	"github.com/sololeveling-irl/irl/internal/app/engagement"
	"github.com/sololeveling-irl/irl/internal/app/schedule"
	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/infra/sqlite"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // Monday

type testEnv struct {
	srv   *Server
	h     http.Handler
	clock *domain.FakeClock
}

func newTestEnv(t *testing.T, secret string) *testEnv {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := domain.NewFakeClock(t0)
	notes := engagement.NewNotificationService(db, clock, nil, engagement.QuietHours{})
	ach := engagement.NewAchievementService(db)
	titles := engagement.NewTitleService(db)
	players := engagement.NewPlayerService(engagement.PlayerServiceConfig{
		Store:        db,
		Clock:        clock,
		Achievements: ach,
		Titles:       titles,
		Notifier:     notes,
	})
	planner := schedule.NewPlanner(db, players, nil, rand.New(rand.NewSource(1)))
	challenges := challenge.NewService(challenge.Config{DB: db, Players: players, Titles: titles, Notifier: notes})

	srv := NewServer(Services{
		Players:       players,
		Achievements:  ach,
		Titles:        titles,
		Notifications: notes,
		Planner:       planner,
		Challenges:    challenges,
	}, NewAuthenticator(secret), nil)
	return &testEnv{srv: srv, h: srv.Handler(), clock: clock}
}

// do sends a request as user (header mode) and decodes a JSON reply into out.
func (e *testEnv) do(t *testing.T, user, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	if out != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w.Code
}

// ═══════════════════════════════════════════════════════════════════════════
// Auth
// ═══════════════════════════════════════════════════════════════════════════

func TestHealth_NoAuth(t *testing.T) {
	e := newTestEnv(t, "")
	if code := e.do(t, "", "GET", "/health", nil, nil); code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
}

func TestAPI_MissingUser(t *testing.T) {
	e := newTestEnv(t, "")
	var resp struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if code := e.do(t, "", "GET", "/api/player", nil, &resp); code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", code)
	}
	if resp.Error.Type != "unauthenticated" {
		t.Errorf("type = %q", resp.Error.Type)
	}
}

func TestAPI_BearerToken(t *testing.T) {
	e := newTestEnv(t, "test-secret")
	tok, err := e.srv.auth.Issue("jin", "Jin", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/player", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var state domain.PlayerState
	json.Unmarshal(w.Body.Bytes(), &state)
	if state.PlayerName != "Jin" {
		t.Errorf("name = %q, want Jin", state.PlayerName)
	}

	// X-User-ID is ignored once a secret is set.
	if code := e.do(t, "jin", "GET", "/api/player", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("header auth status = %d, want 401", code)
	}
}

func TestAuthenticator_RejectsWrongSecret(t *testing.T) {
	a := NewAuthenticator("one")
	b := NewAuthenticator("two")
	tok, err := a.Issue("u", "", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Validate(tok); err == nil {
		t.Error("token signed with another secret should fail")
	}
	if _, err := a.Validate(tok); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestAuthenticator_Expired(t *testing.T) {
	a := NewAuthenticator("s")
	tok, _ := a.Issue("u", "", time.Minute, time.Now().Add(-time.Hour))
	if _, err := a.Validate(tok); err == nil {
		t.Error("expired token should fail")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Tasks
// ═══════════════════════════════════════════════════════════════════════════

func TestTasks_AddCompleteFlow(t *testing.T) {
	e := newTestEnv(t, "")

	var task domain.PendingTask
	code := e.do(t, "u1", "POST", "/api/tasks", map[string]string{
		"name": "Push-ups", "stat": "strength", "type": "SIMPLE",
	}, &task)
	if code != http.StatusCreated {
		t.Fatalf("add status = %d", code)
	}
	if task.ID == "" {
		t.Fatal("task id empty")
	}

	var done completeResponse
	if code := e.do(t, "u1", "POST", "/api/tasks/"+task.ID+"/complete", nil, &done); code != http.StatusOK {
		t.Fatalf("complete status = %d", code)
	}
	if done.Completion == nil || done.Completion.Task.Points <= 0 {
		t.Fatalf("completion = %+v", done.Completion)
	}
	if done.Summary.Streak.Current != 1 {
		t.Errorf("streak = %d, want 1", done.Summary.Streak.Current)
	}
	found := false
	for _, a := range done.Unlocked {
		if a.ID == "first_task" {
			found = true
		}
	}
	if !found {
		t.Errorf("first_task not unlocked: %+v", done.Unlocked)
	}

	// Completing again is a 404: the task left the pending list.
	if code := e.do(t, "u1", "POST", "/api/tasks/"+task.ID+"/complete", nil, nil); code != http.StatusNotFound {
		t.Errorf("second complete status = %d, want 404", code)
	}
}

func TestTasks_Validation(t *testing.T) {
	e := newTestEnv(t, "")
	cases := []map[string]string{
		{"name": "", "stat": "strength", "type": "SIMPLE"},
		{"name": "x", "stat": "luck", "type": "SIMPLE"},
		{"name": "x", "stat": "strength", "type": "EPIC"},
	}
	for _, body := range cases {
		if code := e.do(t, "u1", "POST", "/api/tasks", body, nil); code != http.StatusBadRequest {
			t.Errorf("%v: status = %d, want 400", body, code)
		}
	}
}

func TestTasks_UsersAreIsolated(t *testing.T) {
	e := newTestEnv(t, "")
	var task domain.PendingTask
	e.do(t, "u1", "POST", "/api/tasks", map[string]string{"name": "Read", "stat": "intelligence", "type": "REGULAR"}, &task)

	if code := e.do(t, "u2", "POST", "/api/tasks/"+task.ID+"/complete", nil, nil); code != http.StatusNotFound {
		t.Errorf("other user's task status = %d, want 404", code)
	}
}

func TestPlayer_RenameAndReset(t *testing.T) {
	e := newTestEnv(t, "")
	var state domain.PlayerState
	if code := e.do(t, "u1", "PATCH", "/api/player", map[string]string{"name": "Sung"}, &state); code != http.StatusOK {
		t.Fatalf("rename status = %d", code)
	}
	if state.PlayerName != "Sung" {
		t.Errorf("name = %q", state.PlayerName)
	}

	e.do(t, "u1", "POST", "/api/tasks", map[string]string{"name": "Run", "stat": "stamina", "type": "SIMPLE"}, nil)
	if code := e.do(t, "u1", "POST", "/api/player/reset", nil, &state); code != http.StatusOK {
		t.Fatalf("reset status = %d", code)
	}
	if len(state.Tasks) != 0 || state.PlayerName != "Sung" {
		t.Errorf("after reset: tasks=%d name=%q", len(state.Tasks), state.PlayerName)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Scheduling
// ═══════════════════════════════════════════════════════════════════════════

func TestRules_DailyGeneratesOnce(t *testing.T) {
	e := newTestEnv(t, "")
	code := e.do(t, "u1", "POST", "/api/rules", map[string]interface{}{
		"name": "Stretch", "stat": "stamina", "type": "SIMPLE", "frequency": "DAILY",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("add rule status = %d", code)
	}

	var first, second struct {
		Generated []domain.PendingTask `json:"generated"`
	}
	e.do(t, "u1", "POST", "/api/daily", nil, &first)
	e.do(t, "u1", "POST", "/api/daily", nil, &second)
	if len(first.Generated) != 1 || len(second.Generated) != 0 {
		t.Errorf("generated %d then %d, want 1 then 0", len(first.Generated), len(second.Generated))
	}
}

func TestScheduled_AndCalendar(t *testing.T) {
	e := newTestEnv(t, "")
	code := e.do(t, "u1", "POST", "/api/scheduled", map[string]string{
		"name": "Exam", "stat": "intelligence", "type": "MAJOR", "date": "2026-03-05",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("add scheduled status = %d", code)
	}
	if code := e.do(t, "u1", "POST", "/api/scheduled", map[string]string{
		"name": "Bad", "stat": "intelligence", "type": "MAJOR", "date": "05/03/2026",
	}, nil); code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", code)
	}

	var day struct {
		Entries []domain.CalendarEntry `json:"entries"`
	}
	e.do(t, "u1", "GET", "/api/calendar/2026-03-05", nil, &day)
	if len(day.Entries) != 1 {
		t.Errorf("calendar entries = %d, want 1", len(day.Entries))
	}

	var week struct {
		Start domain.Date                            `json:"start"`
		Days  map[domain.Date][]domain.CalendarEntry `json:"days"`
	}
	e.do(t, "u1", "GET", "/api/calendar/week/2026-03-05", nil, &week)
	if week.Start != "2026-03-01" || len(week.Days) != 7 {
		t.Errorf("week start=%s days=%d", week.Start, len(week.Days))
	}

	if code := e.do(t, "u1", "GET", "/api/calendar/tomorrow", nil, nil); code != http.StatusBadRequest {
		t.Errorf("bad calendar date status = %d, want 400", code)
	}
}

func TestSuggestions_Count(t *testing.T) {
	e := newTestEnv(t, "")
	var resp struct {
		Suggestions []domain.TaskTemplate `json:"suggestions"`
	}
	e.do(t, "u1", "GET", "/api/suggestions?count=3", nil, &resp)
	if len(resp.Suggestions) != 3 {
		t.Errorf("suggestions = %d, want 3", len(resp.Suggestions))
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Engagement
// ═══════════════════════════════════════════════════════════════════════════

func TestAchievementNotifications_NextAndRead(t *testing.T) {
	e := newTestEnv(t, "")
	if code := e.do(t, "u1", "GET", "/api/achievements/notifications/next", nil, nil); code != http.StatusNoContent {
		t.Fatalf("empty next status = %d, want 204", code)
	}

	var task domain.PendingTask
	e.do(t, "u1", "POST", "/api/tasks", map[string]string{"name": "Run", "stat": "stamina", "type": "SIMPLE"}, &task)
	e.do(t, "u1", "POST", "/api/tasks/"+task.ID+"/complete", nil, nil)

	var n domain.AchievementNotification
	if code := e.do(t, "u1", "GET", "/api/achievements/notifications/next", nil, &n); code != http.StatusOK {
		t.Fatalf("next status = %d", code)
	}
	if code := e.do(t, "u1", "POST", "/api/achievements/notifications/"+n.ID+"/read", nil, nil); code != http.StatusNoContent {
		t.Errorf("read status = %d", code)
	}

	var list struct {
		Achievements []domain.AchievementStatus `json:"achievements"`
		Unlocked     int                        `json:"unlocked"`
		Total        int                        `json:"total"`
	}
	e.do(t, "u1", "GET", "/api/achievements", nil, &list)
	if list.Unlocked < 1 || list.Total != len(list.Achievements) {
		t.Errorf("unlocked=%d total=%d len=%d", list.Unlocked, list.Total, len(list.Achievements))
	}
}

func TestTitles_SelectUnearned(t *testing.T) {
	e := newTestEnv(t, "")
	code := e.do(t, "u1", "PUT", "/api/titles/selected", map[string]string{"title_id": "shadow_monarch"}, nil)
	if code != http.StatusUnprocessableEntity {
		t.Errorf("select unearned status = %d, want 422", code)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Challenges
// ═══════════════════════════════════════════════════════════════════════════

func TestChallenges_Lifecycle(t *testing.T) {
	e := newTestEnv(t, "")
	e.do(t, "bob", "GET", "/api/player", nil, nil)

	var c domain.Challenge
	code := e.do(t, "amy", "POST", "/api/challenges", map[string]interface{}{
		"recipient_id": "bob", "type": "LEVEL_RACE", "stat": "strength", "target_level": 3,
	}, &c)
	if code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}

	// Only the recipient may accept.
	if code := e.do(t, "amy", "POST", "/api/challenges/"+c.ID+"/accept", nil, nil); code != http.StatusForbidden {
		t.Errorf("creator accept status = %d, want 403", code)
	}
	if code := e.do(t, "eve", "GET", "/api/challenges/"+c.ID, nil, nil); code != http.StatusForbidden {
		t.Errorf("outsider get status = %d, want 403", code)
	}
	if code := e.do(t, "bob", "POST", "/api/challenges/"+c.ID+"/accept", nil, &c); code != http.StatusOK {
		t.Fatalf("accept status = %d", code)
	}
	if c.Status != domain.ChallengeActive {
		t.Fatalf("status = %s", c.Status)
	}

	if code := e.do(t, "bob", "POST", "/api/challenges/"+c.ID+"/progress", map[string]int{"level": 3}, &c); code != http.StatusOK {
		t.Fatalf("progress status = %d", code)
	}
	if c.Status != domain.ChallengeCompleted || c.Winner != "bob" {
		t.Errorf("status=%s winner=%q", c.Status, c.Winner)
	}

	// Terminal challenges reject further transitions.
	if code := e.do(t, "amy", "POST", "/api/challenges/"+c.ID+"/cancel", nil, nil); code != http.StatusConflict {
		t.Errorf("cancel completed status = %d, want 409", code)
	}

	var titles struct {
		Earned []string `json:"earned"`
	}
	e.do(t, "bob", "GET", "/api/titles", nil, &titles)
	if len(titles.Earned) == 0 {
		t.Error("winner earned no title")
	}
}

func TestChallenges_UnknownRecipient(t *testing.T) {
	e := newTestEnv(t, "")
	code := e.do(t, "amy", "POST", "/api/challenges", map[string]interface{}{
		"recipient_id": "ghost", "type": "STREAK_COMPETITION",
	}, nil)
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestLeaderboard(t *testing.T) {
	e := newTestEnv(t, "")
	var task domain.PendingTask
	e.do(t, "amy", "POST", "/api/tasks", map[string]string{"name": "Lift", "stat": "strength", "type": "MAJOR"}, &task)
	e.do(t, "amy", "POST", "/api/tasks/"+task.ID+"/complete", nil, nil)
	e.do(t, "bob", "GET", "/api/player", nil, nil)

	var resp struct {
		Leaderboard []challenge.LeaderboardEntry `json:"leaderboard"`
	}
	e.do(t, "bob", "GET", "/api/leaderboard", nil, &resp)
	if len(resp.Leaderboard) != 2 {
		t.Fatalf("entries = %d, want 2", len(resp.Leaderboard))
	}
	if resp.Leaderboard[0].UserID != "amy" || resp.Leaderboard[0].Rank != 1 {
		t.Errorf("top = %+v", resp.Leaderboard[0])
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrNotFound:                  http.StatusNotFound,
		domain.ErrNotAuthorized:             http.StatusForbidden,
		domain.ErrInvalidState:              http.StatusConflict,
		domain.ErrNotEligible:               http.StatusUnprocessableEntity,
		domain.NotFound("task", "t1"):       http.StatusNotFound,
		&domain.ValidationError{Field: "x"}: http.StatusBadRequest,
		errors.New("disk full"):             http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := StatusFor(err); got != want {
			t.Errorf("StatusFor(%v) = %d, want %d", err, got, want)
		}
	}
}
