package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sololeveling-irl/irl/internal/domain"
)

func TestParseWeekday(t *testing.T) {
	cases := map[string]int{"0": 0, "6": 6, "mon": 1, "Wednesday": 3, " sat ": 6}
	for in, want := range cases {
		got, err := parseWeekday(in)
		if err != nil || got != want {
			t.Errorf("parseWeekday(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, bad := range []string{"7", "-1", "xyz", ""} {
		if _, err := parseWeekday(bad); err == nil {
			t.Errorf("parseWeekday(%q) should fail", bad)
		}
	}
}

func TestParseEvery(t *testing.T) {
	freq, _, _, err := parseEvery("day")
	if err != nil || freq != domain.FrequencyDaily {
		t.Errorf("day -> %s, %v", freq, err)
	}
	freq, day, _, err := parseEvery("mon")
	if err != nil || freq != domain.FrequencyWeekly || day != 1 {
		t.Errorf("mon -> %s %d, %v", freq, day, err)
	}
	freq, _, days, err := parseEvery("mon,wed,fri")
	if err != nil || freq != domain.FrequencySpecificDays || len(days) != 3 {
		t.Errorf("mon,wed,fri -> %s %v, %v", freq, days, err)
	}
}

func TestParseChallengeType(t *testing.T) {
	if typ, _ := parseChallengeType("level"); typ != domain.ChallengeLevel {
		t.Errorf("level -> %s", typ)
	}
	if typ, _ := parseChallengeType("WEEKLY_LEADERBOARD"); typ != domain.ChallengeWeekly {
		t.Errorf("weekly -> %s", typ)
	}
	if _, err := parseChallengeType("duel"); err == nil {
		t.Error("unknown type should fail")
	}
}

func TestResolveID(t *testing.T) {
	ids := []string{"0190-aaaa-11112222", "0190-bbbb-33332222"}
	if got, err := resolveID("33332222", ids); err != nil || got != ids[1] {
		t.Errorf("suffix -> %q, %v", got, err)
	}
	if got, err := resolveID(ids[0], ids); err != nil || got != ids[0] {
		t.Errorf("full -> %q, %v", got, err)
	}
	if _, err := resolveID("nope", ids); err == nil {
		t.Error("unknown id should fail")
	}
	if _, err := resolveID("2222", ids); err == nil {
		t.Error("ambiguous suffix should fail")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Commands against a temporary $IRL_HOME
// ═══════════════════════════════════════════════════════════════════════════

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("irl %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestCommands_TaskFlow(t *testing.T) {
	t.Setenv("IRL_HOME", t.TempDir())
	t.Cleanup(func() { flagJSON = false; flagUser = "local" })

	run(t, "--user", "jin", "task", "add", "Push-ups", "--stat", "strength", "--type", "simple")

	var tasks []domain.PendingTask
	if err := json.Unmarshal([]byte(run(t, "--user", "jin", "--json", "task", "list")), &tasks); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Type != domain.TaskSimple {
		t.Fatalf("tasks = %+v", tasks)
	}

	out := run(t, "--user", "jin", "--json=false", "task", "done", shortID(tasks[0].ID))
	if !strings.Contains(out, "Push-ups") {
		t.Errorf("done output = %q", out)
	}

	out = run(t, "--user", "jin", "status")
	if !strings.Contains(out, "Strength") {
		t.Errorf("status output missing stats: %q", out)
	}
}
