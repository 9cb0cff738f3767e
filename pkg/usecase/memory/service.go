// Package memory implements the tiered memory store: four importance-scored
// categories with per-category capacity limits, durable append-only logging,
// and lexical relevance ranking.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/alacbot/pkg/model"
	"github.com/m-mizutani/alacbot/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
)

// Config holds per-category capacity limits. A non-positive limit disables
// trimming for that category.
type Config struct {
	ShortTermLimit  int
	LongTermLimit   int
	WorkingLimit    int
	FactLimit       int
	ShortTermExpiry time.Duration
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		ShortTermLimit:  50,
		LongTermLimit:   1000,
		WorkingLimit:    20,
		FactLimit:       500,
		ShortTermExpiry: 24 * time.Hour,
	}
}

// Service owns the authoritative in-memory index of memory entries, keyed
// by user and grouped by category. Every write is appended to the durable
// log before the index is touched; a failed append leaves the index
// unchanged.
type Service struct {
	repo repository.Repository
	cfg  Config
	now  func() time.Time

	mu       sync.Mutex
	memories map[string][]*model.MemoryEntry
}

type Option func(*Service)

// WithConfig overrides the default capacity limits.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a memory service backed by the given log repository.
func New(repo repository.Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		cfg:      DefaultConfig(),
		now:      time.Now,
		memories: make(map[string][]*model.MemoryEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service's current time. Exposed so collaborators stamp
// metadata with the same (possibly test-injected) clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// AddFact stores a fact provided by or about the user.
func (s *Service) AddFact(ctx context.Context, userID, content string, metadata map[string]any) (*model.MemoryEntry, error) {
	if err := validateInput(userID, content); err != nil {
		return nil, err
	}

	entry := model.NewFact(userID, content, metadata, s.now())
	if err := s.add(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// AddLongTermMemory stores important information such as user preferences
// or background knowledge. A non-positive importance falls back to the
// category default.
func (s *Service) AddLongTermMemory(ctx context.Context, userID, content string, importance int, metadata map[string]any) (*model.MemoryEntry, error) {
	if err := validateInput(userID, content); err != nil {
		return nil, err
	}

	entry := model.NewLongTermMemory(userID, content, importance, metadata, s.now())
	if err := s.add(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// AddWorkingMemory stores task-scoped context. Expired working entries for
// the user are swept from the index before the new entry is inserted.
func (s *Service) AddWorkingMemory(ctx context.Context, userID, content string, metadata map[string]any) (*model.MemoryEntry, error) {
	if err := validateInput(userID, content); err != nil {
		return nil, err
	}

	entry := model.NewWorkingMemory(userID, content, metadata, s.now())
	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, goerr.Wrap(err, "failed to persist memory entry", goerr.V("id", entry.ID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepWorkingMemory(userID)
	s.store(entry)

	return entry, nil
}

// AddShortTermMemory stores session-scoped information that expires after
// the configured short-term TTL.
func (s *Service) AddShortTermMemory(ctx context.Context, userID, content string, metadata map[string]any) (*model.MemoryEntry, error) {
	if err := validateInput(userID, content); err != nil {
		return nil, err
	}

	entry := model.NewShortTermMemory(userID, content, metadata, s.now(), s.cfg.ShortTermExpiry)
	if err := s.add(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func validateInput(userID, content string) error {
	if userID == "" {
		return goerr.New("user id is required")
	}
	if content == "" {
		return goerr.New("content is required")
	}
	return nil
}

// add appends the entry to the durable log, then inserts it into the index.
func (s *Service) add(ctx context.Context, entry *model.MemoryEntry) error {
	if err := s.repo.Append(ctx, entry); err != nil {
		return goerr.Wrap(err, "failed to persist memory entry", goerr.V("id", entry.ID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(entry)

	return nil
}

// store inserts the entry and runs limit enforcement. Caller must hold mu.
func (s *Service) store(entry *model.MemoryEntry) {
	s.memories[entry.UserID] = append(s.memories[entry.UserID], entry)
	s.enforceLimits(entry.UserID)
}

// enforceLimits trims each over-limit category and rebuilds the user's
// entries in canonical category order. Trimming touches the index only; the
// durable log keeps the full write history and replay re-derives the same
// view by re-applying these rules.
func (s *Service) enforceLimits(userID string) {
	entries := s.memories[userID]
	if len(entries) == 0 {
		return
	}

	grouped := groupByCategory(entries)
	grouped[model.CategoryShortTerm] = trimByImportance(grouped[model.CategoryShortTerm], s.cfg.ShortTermLimit)
	grouped[model.CategoryLongTerm] = trimByImportance(grouped[model.CategoryLongTerm], s.cfg.LongTermLimit)
	grouped[model.CategoryWorking] = trimByRecency(grouped[model.CategoryWorking], s.cfg.WorkingLimit)
	grouped[model.CategoryFact] = trimByImportance(grouped[model.CategoryFact], s.cfg.FactLimit)

	rebuilt := make([]*model.MemoryEntry, 0, len(entries))
	for _, category := range model.Categories() {
		rebuilt = append(rebuilt, grouped[category]...)
	}
	s.memories[userID] = rebuilt
}

// sweepWorkingMemory drops expired working entries from the user's index.
// Caller must hold mu.
func (s *Service) sweepWorkingMemory(userID string) {
	now := s.now()
	entries := s.memories[userID]
	kept := entries[:0:0]
	for _, e := range entries {
		if e.Category == model.CategoryWorking && e.Expired(now) {
			continue
		}
		kept = append(kept, e)
	}
	s.memories[userID] = kept
}

func groupByCategory(entries []*model.MemoryEntry) map[model.Category][]*model.MemoryEntry {
	grouped := make(map[model.Category][]*model.MemoryEntry, 4)
	for _, e := range entries {
		grouped[e.Category] = append(grouped[e.Category], e)
	}
	return grouped
}

// trimByImportance keeps the top-limit entries by importance descending.
// Ties fall back to ID lexical order so the result is deterministic.
func trimByImportance(entries []*model.MemoryEntry, limit int) []*model.MemoryEntry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b *model.MemoryEntry) int {
		if d := b.Importance - a.Importance; d != 0 {
			return d
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return sorted[:limit]
}

// trimByRecency keeps the top-limit entries by timestamp descending, with
// the same ID fallback on ties.
func trimByRecency(entries []*model.MemoryEntry, limit int) []*model.MemoryEntry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b *model.MemoryEntry) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return sorted[:limit]
}
