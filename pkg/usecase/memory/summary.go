package memory

import (
	"strings"

	"github.com/m-mizutani/alacbot/pkg/model"
)

// EmptySummary is returned when the user has no stored memories.
const EmptySummary = "No stored memories yet."

const (
	summaryFactLimit     = 5
	summaryLongTermLimit = 5
	summaryWorkingLimit  = 3
)

// GenerateMemorySummary renders a digest of the user's memories for
// injection into the agent's system prompt: top facts, top long-term
// entries, and current working context. Empty categories are omitted.
func (s *Service) GenerateMemorySummary(userID string) string {
	entries := s.GetAvailableMemories(userID)
	if len(entries) == 0 {
		return EmptySummary
	}

	grouped := groupByCategory(entries)

	var b strings.Builder
	b.WriteString("## User Memory Summary\n\n")

	writeSection(&b, "### Known Facts", grouped[model.CategoryFact], summaryFactLimit)
	writeSection(&b, "### Important Information", grouped[model.CategoryLongTerm], summaryLongTermLimit)
	writeSection(&b, "### Current Context", grouped[model.CategoryWorking], summaryWorkingLimit)

	return b.String()
}

func writeSection(b *strings.Builder, heading string, entries []*model.MemoryEntry, limit int) {
	if len(entries) == 0 {
		return
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	b.WriteString(heading + "\n")
	for _, e := range entries {
		b.WriteString("- " + e.Content + "\n")
	}
	b.WriteString("\n")
}

// GetStats aggregates counts and importance over the user's non-expired
// entries.
func (s *Service) GetStats(userID string) model.MemoryStats {
	return buildStats(s.GetAvailableMemories(userID))
}

// GetStatsAll aggregates over every known user.
func (s *Service) GetStatsAll() model.MemoryStats {
	now := s.now()

	s.mu.Lock()
	var all []*model.MemoryEntry
	for _, entries := range s.memories {
		for _, e := range entries {
			if e.Expired(now) {
				continue
			}
			all = append(all, e)
		}
	}
	s.mu.Unlock()

	return buildStats(all)
}

func buildStats(entries []*model.MemoryEntry) model.MemoryStats {
	stats := model.MemoryStats{
		TotalMemories: len(entries),
	}

	for _, e := range entries {
		stats.TotalImportance += e.Importance
		switch e.Category {
		case model.CategoryShortTerm:
			stats.ShortTermCount++
		case model.CategoryLongTerm:
			stats.LongTermCount++
		case model.CategoryWorking:
			stats.WorkingCount++
		case model.CategoryFact:
			stats.FactCount++
		}
	}

	if len(entries) > 0 {
		stats.AverageImportance = float64(stats.TotalImportance) / float64(len(entries))
	}
	return stats
}
