package memory

import (
	"context"

	"github.com/m-mizutani/alacbot/pkg/model"
	"github.com/m-mizutani/alacbot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// LoadPersistentMemories rebuilds the user's in-memory index from the
// durable logs. Entries are replayed in insertion order through the normal
// storage path, so limit enforcement re-derives the same trimmed view the
// live store had. Records whose expiry has passed are skipped. An
// unreadable stream is logged and treated as empty; it does not abort the
// replay.
func (s *Service) LoadPersistentMemories(ctx context.Context, userID string) error {
	now := s.now()
	loaded := 0

	for _, category := range model.Categories() {
		entries, err := s.repo.Load(ctx, userID, category)
		if err != nil {
			logging.From(ctx).Warn("failed to load memory log, treating as empty",
				"user", userID,
				"category", category,
				"error", err,
			)
			continue
		}

		s.mu.Lock()
		for _, e := range entries {
			if e.Expired(now) {
				continue
			}
			s.store(e)
			loaded++
		}
		s.mu.Unlock()
	}

	logging.From(ctx).Debug("loaded persistent memories", "user", userID, "count", loaded)
	return nil
}

// Clear removes the user's in-memory index and deletes all per-category
// log files. Missing files are not an error.
func (s *Service) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	delete(s.memories, userID)
	s.mu.Unlock()

	for _, category := range model.Categories() {
		if err := s.repo.Delete(ctx, userID, category); err != nil {
			return goerr.Wrap(err, "failed to delete memory log",
				goerr.V("user", userID), goerr.V("category", category))
		}
	}

	logging.From(ctx).Info("cleared all memories", "user", userID)
	return nil
}
