package memory_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/m-mizutani/alacbot/pkg/usecase/memory"
	"github.com/m-mizutani/gt"
)

func TestSummaryEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	gt.Equal(t, svc.GenerateMemorySummary("nobody"), memory.EmptySummary)
}

func TestSummarySections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for i := range 7 {
		_, err := svc.AddFact(ctx, "u1", fmt.Sprintf("fact %d", i), nil)
		gt.NoError(t, err)
	}
	_, err := svc.AddLongTermMemory(ctx, "u1", "prefers Go", 70, nil)
	gt.NoError(t, err)
	_, err = svc.AddWorkingMemory(ctx, "u1", "reviewing a pull request", nil)
	gt.NoError(t, err)

	summary := svc.GenerateMemorySummary("u1")
	gt.S(t, summary).Contains("## User Memory Summary")
	gt.S(t, summary).Contains("### Known Facts")
	gt.S(t, summary).Contains("### Important Information")
	gt.S(t, summary).Contains("### Current Context")
	gt.S(t, summary).Contains("- prefers Go")
	gt.S(t, summary).Contains("- reviewing a pull request")

	// Facts are capped at the top 5
	gt.S(t, summary).Contains("fact 4")
	gt.False(t, strings.Contains(summary, "fact 5"))
	gt.False(t, strings.Contains(summary, "fact 6"))
}

func TestSummaryOmitsEmptyCategories(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.AddFact(ctx, "u1", "only a fact", nil)
	gt.NoError(t, err)

	summary := svc.GenerateMemorySummary("u1")
	gt.S(t, summary).Contains("### Known Facts")
	gt.False(t, strings.Contains(summary, "### Important Information"))
	gt.False(t, strings.Contains(summary, "### Current Context"))
}

func TestExportMarkdown(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.AddFact(ctx, "u1", "likes pizza", map[string]any{"source": "chat"})
	gt.NoError(t, err)
	_, err = svc.AddLongTermMemory(ctx, "u1", "prefers Go", 85, nil)
	gt.NoError(t, err)
	_, err = svc.AddWorkingMemory(ctx, "u1", "reviewing code", nil)
	gt.NoError(t, err)
	_, err = svc.AddShortTermMemory(ctx, "u1", "session note", nil)
	gt.NoError(t, err)

	doc := svc.ExportMarkdown("u1")
	gt.S(t, doc).Contains("# Memory Export - u1")
	gt.S(t, doc).Contains("**Total Memories**: 4")
	gt.S(t, doc).Contains("## Facts (1)")
	gt.S(t, doc).Contains("- likes pizza")
	gt.S(t, doc).Contains(`"source":"chat"`)
	gt.S(t, doc).Contains("## Long-Term Memories (1)")
	gt.S(t, doc).Contains("- prefers Go (Importance: 85)")
	gt.S(t, doc).Contains("## Working Memories (1)")
	gt.S(t, doc).Contains("## Short-Term Memories (1)")
}

func TestExportMarkdownEmptyUser(t *testing.T) {
	svc, _ := newTestService(t)

	doc := svc.ExportMarkdown("nobody")
	gt.S(t, doc).Contains("**Total Memories**: 0")
	gt.S(t, doc).Contains("## Facts (0)")
}
