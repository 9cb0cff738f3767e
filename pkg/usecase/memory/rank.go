package memory

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/alacbot/pkg/model"
)

// DefaultRelevanceLimit is used when a caller does not specify how many
// entries to retrieve.
const DefaultRelevanceLimit = 10

const (
	keywordHitScore    = 10.0
	importanceWeight   = 0.5
	recencyBase        = 100.0
	recencyDecayPerDay = 5.0
)

// categoryBonus returns the fixed score contribution of the entry's
// category.
func categoryBonus(category model.Category) float64 {
	switch category {
	case model.CategoryFact:
		return 20
	case model.CategoryWorking:
		return 15
	case model.CategoryLongTerm:
		return 10
	case model.CategoryShortTerm:
		return 0
	default:
		return 0
	}
}

type scoredEntry struct {
	entry *model.MemoryEntry
	score float64
}

// rankByRelevance runs a full rescoring pass over the candidates and
// returns the top-limit entries by composite score. The score sums keyword
// hits (+10 per query token found as a case-insensitive substring of the
// content, repeated tokens counted repeatedly), weighted importance,
// recency (100 minus 5 per day of age, floored at zero), and the category
// bonus. Ties keep the candidates' original order.
func rankByRelevance(entries []*model.MemoryEntry, query string, limit int, now time.Time) []*model.MemoryEntry {
	if limit <= 0 {
		limit = DefaultRelevanceLimit
	}

	keywords := strings.Fields(strings.ToLower(query))

	scored := make([]scoredEntry, 0, len(entries))
	for _, e := range entries {
		content := strings.ToLower(e.Content)

		score := 0.0
		for _, keyword := range keywords {
			if strings.Contains(content, keyword) {
				score += keywordHitScore
			}
		}

		score += float64(e.Importance) * importanceWeight

		days := now.Sub(e.Timestamp).Hours() / 24
		score += math.Max(0, recencyBase-days*recencyDecayPerDay)

		score += categoryBonus(e.Category)

		scored = append(scored, scoredEntry{entry: e, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	result := make([]*model.MemoryEntry, len(scored))
	for i, se := range scored {
		result[i] = se.entry
	}
	return result
}
