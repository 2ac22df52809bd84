package schedule

import (
	"math/rand"

	"github.com/sololeveling-irl/irl/internal/domain"
)

// Suggest picks up to count templates, favouring the player's weakest stats.
//
// Stats are visited weakest first; for each, recommended templates tagged
// with that stat are taken in random order until count is reached. Any
// shortfall is filled from the remaining templates in random order.
// A template id appears at most once per batch.
func Suggest(stats map[domain.StatID]domain.StatProgress, templates []domain.TaskTemplate, count int, rng *rand.Rand) []domain.TaskTemplate {
	if count <= 0 || len(templates) == 0 {
		return []domain.TaskTemplate{}
	}

	picked := make([]domain.TaskTemplate, 0, count)
	used := make(map[string]bool, count)
	take := func(t domain.TaskTemplate) bool {
		if used[t.ID] {
			return false
		}
		used[t.ID] = true
		picked = append(picked, t)
		return len(picked) >= count
	}

	for _, stat := range sortedStats(stats) {
		var pool []domain.TaskTemplate
		for _, t := range templates {
			if t.Stat == stat && t.Category == domain.TemplateRecommended {
				pool = append(pool, t)
			}
		}
		shuffle(pool, rng)
		for _, t := range pool {
			if take(t) {
				return picked
			}
		}
	}

	rest := make([]domain.TaskTemplate, 0, len(templates))
	for _, t := range templates {
		if !used[t.ID] {
			rest = append(rest, t)
		}
	}
	shuffle(rest, rng)
	for _, t := range rest {
		if take(t) {
			break
		}
	}
	return picked
}

func shuffle(ts []domain.TaskTemplate, rng *rand.Rand) {
	swap := func(i, j int) { ts[i], ts[j] = ts[j], ts[i] }
	if rng == nil {
		rand.Shuffle(len(ts), swap)
		return
	}
	rng.Shuffle(len(ts), swap)
}
