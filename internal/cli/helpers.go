package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sololeveling-irl/irl/internal/daemon"
	"github.com/sololeveling-irl/irl/internal/domain"
)

// openDaemon wires the services for a one-shot command. Logging is kept to
// warnings so it does not interleave with command output.
func openDaemon() (*daemon.Daemon, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Logging.Level == "" || cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		cfg.Logging.Level = "warn"
	}
	cfg.Redis.Enabled = false
	d, err := daemon.NewWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return d, nil
}

// openPlayer opens the daemon and makes sure the --user player exists.
func openPlayer() (*daemon.Daemon, domain.PlayerState, error) {
	d, err := openDaemon()
	if err != nil {
		return nil, domain.PlayerState{}, err
	}
	state, err := d.Players.Ensure(flagUser, "")
	if err != nil {
		d.Close()
		return nil, domain.PlayerState{}, err
	}
	return d, state, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var weekdayNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

// parseWeekday accepts 0-6 (Sunday first) or a day name.
func parseWeekday(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday %d out of range 0-6", n)
		}
		return n, nil
	}
	if len(s) >= 3 {
		if n, ok := weekdayNames[s[:3]]; ok {
			return n, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// parseWeekdays parses a comma-separated day list like "mon,wed,fri".
func parseWeekdays(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		d, err := parseWeekday(part)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no weekdays given")
	}
	return out, nil
}

// parseTaskType accepts any case, e.g. "major" or "MAJOR".
func parseTaskType(s string) (domain.TaskType, error) {
	return domain.ParseTaskType(strings.ToUpper(strings.TrimSpace(s)))
}

func parseStat(s string) (domain.StatID, error) {
	return domain.ParseStat(strings.ToLower(strings.TrimSpace(s)))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

// resolveID matches a full id or an id suffix as printed by shortID.
func resolveID(prefix string, ids []string) (string, error) {
	var match string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasSuffix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("id %q is ambiguous", prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", domain.NotFound("id", prefix)
	}
	return match, nil
}
