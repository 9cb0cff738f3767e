package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/alacbot/pkg/model"
	"github.com/m-mizutani/gt"
)

func testEntry(id string, category model.Category, content string, importance int, ts time.Time) *model.MemoryEntry {
	return &model.MemoryEntry{
		ID:         model.MemoryID(id),
		UserID:     "u1",
		Content:    content,
		Category:   category,
		Timestamp:  ts,
		Importance: importance,
	}
}

func TestRankKeywordMatch(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Same age, importance, and category: keyword hits decide
	entries := []*model.MemoryEntry{
		testEntry("lt-1", model.CategoryLongTerm, "nothing relevant here", 50, now),
		testEntry("lt-2", model.CategoryLongTerm, "I like pizza", 50, now),
	}

	ranked := rankByRelevance(entries, "pizza", 10, now)
	gt.A(t, ranked).Length(2)
	gt.Equal(t, ranked[0].ID, model.MemoryID("lt-2"))
}

func TestRankRecencyOutweighsSingleKeywordHit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// A: one keyword hit but 30 days old: 10 + 25 + 0 = 35
	// B: no hit but created today:         0 + 25 + 100 = 125
	// The recency term dominates a single keyword hit by the literal
	// formula.
	a := testEntry("lt-a", model.CategoryLongTerm, "I like pizza", 50, now.AddDate(0, 0, -30))
	b := testEntry("lt-b", model.CategoryLongTerm, "nothing relevant", 50, now)

	ranked := rankByRelevance([]*model.MemoryEntry{a, b}, "pizza", 10, now)
	gt.Equal(t, ranked[0].ID, model.MemoryID("lt-b"))
	gt.Equal(t, ranked[1].ID, model.MemoryID("lt-a"))
}

func TestRankKeywordsOvercomeRecencyGap(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// A: two hits, 10 days old: 20 + 25 + 50 = 95
	// B: no hits, today:         0 + 25 + 100 = 125 -> still ahead
	// C: two hits, 5 days old:  20 + 25 + 75 = 120 -> still behind B
	// D: two hits, 1 day old:   20 + 25 + 95 = 140 -> ahead of B
	a := testEntry("lt-a", model.CategoryLongTerm, "pizza for lunch", 50, now.AddDate(0, 0, -10))
	b := testEntry("lt-b", model.CategoryLongTerm, "nothing relevant", 50, now)
	c := testEntry("lt-c", model.CategoryLongTerm, "pizza for lunch again", 50, now.AddDate(0, 0, -5))
	d := testEntry("lt-d", model.CategoryLongTerm, "pizza at lunch today", 50, now.AddDate(0, 0, -1))

	ranked := rankByRelevance([]*model.MemoryEntry{a, b, c, d}, "pizza lunch", 10, now)
	gt.Equal(t, ranked[0].ID, model.MemoryID("lt-d"))
	gt.Equal(t, ranked[1].ID, model.MemoryID("lt-b"))
	gt.Equal(t, ranked[2].ID, model.MemoryID("lt-c"))
	gt.Equal(t, ranked[3].ID, model.MemoryID("lt-a"))
}

func TestRankRepeatedQueryTokens(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Tokens are not deduplicated: "pizza pizza" scores the matching entry
	// twice, enough to overcome a 5-day recency gap (20+25+75 vs 0+25+100)
	a := testEntry("lt-a", model.CategoryLongTerm, "I like pizza", 50, now.AddDate(0, 0, -5))
	b := testEntry("lt-b", model.CategoryLongTerm, "nothing relevant", 50, now)

	ranked := rankByRelevance([]*model.MemoryEntry{a, b}, "pizza pizza", 10, now)
	gt.Equal(t, ranked[0].ID, model.MemoryID("lt-a"))
}

func TestRankCategoryBonus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Identical except for category: fact (+20) beats short-term (+0)
	st := testEntry("st-1", model.CategoryShortTerm, "likes pizza", 50, now)
	fact := testEntry("fact-1", model.CategoryFact, "likes pizza", 50, now)

	ranked := rankByRelevance([]*model.MemoryEntry{st, fact}, "pizza", 10, now)
	gt.Equal(t, ranked[0].ID, model.MemoryID("fact-1"))
	gt.Equal(t, ranked[1].ID, model.MemoryID("st-1"))
}

func TestRankCaseInsensitive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := testEntry("lt-a", model.CategoryLongTerm, "I LOVE Pizza", 50, now)
	b := testEntry("lt-b", model.CategoryLongTerm, "nothing relevant", 50, now)

	ranked := rankByRelevance([]*model.MemoryEntry{a, b}, "PIZZA", 10, now)
	gt.Equal(t, ranked[0].ID, model.MemoryID("lt-a"))
}

func TestRankDeterminism(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var entries []*model.MemoryEntry
	for i := range 20 {
		entries = append(entries, testEntry(
			fmt.Sprintf("lt-%02d", i), model.CategoryLongTerm,
			fmt.Sprintf("memory about topic %d", i%3), 50, now))
	}

	first := rankByRelevance(entries, "topic 1", 10, now)
	for range 5 {
		again := rankByRelevance(entries, "topic 1", 10, now)
		gt.A(t, again).Length(len(first))
		for i := range first {
			gt.Equal(t, again[i].ID, first[i].ID)
		}
	}
}

func TestRankTiesKeepInsertionOrder(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := testEntry("lt-z", model.CategoryLongTerm, "same score", 50, now)
	b := testEntry("lt-a", model.CategoryLongTerm, "same score", 50, now)

	ranked := rankByRelevance([]*model.MemoryEntry{a, b}, "score", 10, now)
	gt.Equal(t, ranked[0].ID, model.MemoryID("lt-z"))
	gt.Equal(t, ranked[1].ID, model.MemoryID("lt-a"))
}

func TestRankLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var entries []*model.MemoryEntry
	for i := range 15 {
		entries = append(entries, testEntry(
			fmt.Sprintf("lt-%02d", i), model.CategoryLongTerm, "content", 50, now))
	}

	gt.A(t, rankByRelevance(entries, "content", 3, now)).Length(3)
	// Non-positive limit falls back to the default of 10
	gt.A(t, rankByRelevance(entries, "content", 0, now)).Length(DefaultRelevanceLimit)
}

func TestRecencyFloorsAtZero(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// 30 days old (recency 0) vs 40 days old (also 0): only the keyword
	// term separates them
	a := testEntry("lt-a", model.CategoryLongTerm, "nothing relevant", 50, now.AddDate(0, 0, -30))
	b := testEntry("lt-b", model.CategoryLongTerm, "likes pizza", 50, now.AddDate(0, 0, -40))

	ranked := rankByRelevance([]*model.MemoryEntry{a, b}, "pizza", 10, now)
	gt.Equal(t, ranked[0].ID, model.MemoryID("lt-b"))
}
