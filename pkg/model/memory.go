package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidCategory = goerr.New("invalid memory category")
)

type MemoryID string

// NewMemoryID generates a unique MemoryID with the category prefix and
// creation time, e.g. "lt-1719849600000-1a2b3c4d".
func NewMemoryID(category Category, now time.Time) MemoryID {
	return MemoryID(fmt.Sprintf("%s-%d-%s", category.Prefix(), now.UnixMilli(), uuid.NewString()[:8]))
}

type Category string

const (
	CategoryShortTerm Category = "short-term"
	CategoryLongTerm  Category = "long-term"
	CategoryWorking   Category = "working"
	CategoryFact      Category = "fact"
)

// Categories returns all categories in their canonical grouping order.
func Categories() []Category {
	return []Category{CategoryShortTerm, CategoryLongTerm, CategoryWorking, CategoryFact}
}

// Validate checks if the category is one of the four known values
func (c Category) Validate() error {
	switch c {
	case CategoryShortTerm, CategoryLongTerm, CategoryWorking, CategoryFact:
		return nil
	default:
		return goerr.Wrap(ErrInvalidCategory, "unknown category", goerr.V("category", c))
	}
}

// Prefix returns the ID prefix used for entries of this category
func (c Category) Prefix() string {
	switch c {
	case CategoryShortTerm:
		return "st"
	case CategoryLongTerm:
		return "lt"
	case CategoryWorking:
		return "wm"
	case CategoryFact:
		return "fact"
	default:
		return "mem"
	}
}

// Default importance per category
const (
	DefaultShortTermImportance = 50
	DefaultLongTermImportance  = 70
	DefaultWorkingImportance   = 80
	DefaultFactImportance      = 90
)

// MemoryEntry is the atomic unit of the memory store. All fields are
// immutable after construction; entries are superseded or evicted, never
// edited in place.
type MemoryEntry struct {
	ID         MemoryID
	UserID     string
	Content    string
	Category   Category
	Timestamp  time.Time
	Importance int
	ExpiresAt  *time.Time
	Metadata   map[string]any
}

// Expired reports whether the entry's expiry has passed. Entries without
// ExpiresAt never expire.
func (e *MemoryEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}

// memoryEntryRecord is the wire form of a MemoryEntry. Timestamps are Unix
// milliseconds to keep the persisted log layout stable.
type memoryEntryRecord struct {
	ID         MemoryID       `json:"id"`
	UserID     string         `json:"userId"`
	Content    string         `json:"content"`
	Category   Category       `json:"category"`
	Timestamp  int64          `json:"timestamp"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Importance int            `json:"importance"`
	ExpiresAt  int64          `json:"expiresAt,omitempty"`
}

func (e *MemoryEntry) MarshalJSON() ([]byte, error) {
	rec := memoryEntryRecord{
		ID:         e.ID,
		UserID:     e.UserID,
		Content:    e.Content,
		Category:   e.Category,
		Timestamp:  e.Timestamp.UnixMilli(),
		Metadata:   e.Metadata,
		Importance: e.Importance,
	}
	if e.ExpiresAt != nil {
		rec.ExpiresAt = e.ExpiresAt.UnixMilli()
	}
	return json.Marshal(rec)
}

func (e *MemoryEntry) UnmarshalJSON(data []byte) error {
	var rec memoryEntryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return goerr.Wrap(err, "failed to unmarshal memory entry")
	}
	if err := rec.Category.Validate(); err != nil {
		return err
	}

	e.ID = rec.ID
	e.UserID = rec.UserID
	e.Content = rec.Content
	e.Category = rec.Category
	e.Timestamp = time.UnixMilli(rec.Timestamp)
	e.Metadata = rec.Metadata
	e.Importance = rec.Importance
	if rec.ExpiresAt > 0 {
		expiresAt := time.UnixMilli(rec.ExpiresAt)
		e.ExpiresAt = &expiresAt
	} else {
		e.ExpiresAt = nil
	}
	return nil
}

// NewFact creates a fact entry. Facts carry the highest default importance
// and never expire.
func NewFact(userID, content string, metadata map[string]any, now time.Time) *MemoryEntry {
	return &MemoryEntry{
		ID:         NewMemoryID(CategoryFact, now),
		UserID:     userID,
		Content:    content,
		Category:   CategoryFact,
		Timestamp:  now,
		Importance: DefaultFactImportance,
		Metadata:   metadata,
	}
}

// NewLongTermMemory creates a long-term entry. A non-positive importance
// falls back to the default of 70.
func NewLongTermMemory(userID, content string, importance int, metadata map[string]any, now time.Time) *MemoryEntry {
	if importance <= 0 {
		importance = DefaultLongTermImportance
	}
	return &MemoryEntry{
		ID:         NewMemoryID(CategoryLongTerm, now),
		UserID:     userID,
		Content:    content,
		Category:   CategoryLongTerm,
		Timestamp:  now,
		Importance: importance,
		Metadata:   metadata,
	}
}

// NewWorkingMemory creates a working entry for task-scoped context.
func NewWorkingMemory(userID, content string, metadata map[string]any, now time.Time) *MemoryEntry {
	return &MemoryEntry{
		ID:         NewMemoryID(CategoryWorking, now),
		UserID:     userID,
		Content:    content,
		Category:   CategoryWorking,
		Timestamp:  now,
		Importance: DefaultWorkingImportance,
		Metadata:   metadata,
	}
}

// NewShortTermMemory creates a short-term entry that expires after ttl.
func NewShortTermMemory(userID, content string, metadata map[string]any, now time.Time, ttl time.Duration) *MemoryEntry {
	expiresAt := now.Add(ttl)
	return &MemoryEntry{
		ID:         NewMemoryID(CategoryShortTerm, now),
		UserID:     userID,
		Content:    content,
		Category:   CategoryShortTerm,
		Timestamp:  now,
		Importance: DefaultShortTermImportance,
		ExpiresAt:  &expiresAt,
		Metadata:   metadata,
	}
}

// MemoryStats aggregates entry counts and importance over one user or all
// users.
type MemoryStats struct {
	TotalMemories     int
	ShortTermCount    int
	LongTermCount     int
	WorkingCount      int
	FactCount         int
	TotalImportance   int
	AverageImportance float64
}
