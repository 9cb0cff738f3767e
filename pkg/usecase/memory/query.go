package memory

import (
	"github.com/m-mizutani/alacbot/pkg/model"
)

// GetAvailableMemories returns all non-expired entries for the user. The
// result is grouped by category; no ordering is guaranteed beyond that.
func (s *Service) GetAvailableMemories(userID string) []*model.MemoryEntry {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.memories[userID]
	available := make([]*model.MemoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.Expired(now) {
			continue
		}
		available = append(available, e)
	}
	return available
}

// GetRelevantMemories scores the user's available entries against the query
// and returns the top-limit by relevance. A non-positive limit falls back
// to DefaultRelevanceLimit.
func (s *Service) GetRelevantMemories(userID, query string, limit int) []*model.MemoryEntry {
	return rankByRelevance(s.GetAvailableMemories(userID), query, limit, s.now())
}
