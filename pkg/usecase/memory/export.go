package memory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/alacbot/pkg/model"
)

const exportTimeFormat = "2006-01-02 15:04:05"

// ExportMarkdown renders all of the user's non-expired entries as a
// human-readable document grouped by category. It is a pure serialization
// view with no side effects.
func (s *Service) ExportMarkdown(userID string) string {
	entries := s.GetAvailableMemories(userID)
	grouped := groupByCategory(entries)

	var b strings.Builder
	fmt.Fprintf(&b, "# Memory Export - %s\n\n", userID)
	fmt.Fprintf(&b, "**Exported**: %s\n", s.now().Format(exportTimeFormat))
	fmt.Fprintf(&b, "**Total Memories**: %d\n\n", len(entries))

	facts := grouped[model.CategoryFact]
	fmt.Fprintf(&b, "## Facts (%d)\n\n", len(facts))
	for _, e := range facts {
		fmt.Fprintf(&b, "- %s\n", e.Content)
		if len(e.Metadata) > 0 {
			if meta, err := json.Marshal(e.Metadata); err == nil {
				fmt.Fprintf(&b, "  *%s*\n", meta)
			}
		}
	}
	b.WriteString("\n")

	longTerm := grouped[model.CategoryLongTerm]
	fmt.Fprintf(&b, "## Long-Term Memories (%d)\n\n", len(longTerm))
	for _, e := range longTerm {
		fmt.Fprintf(&b, "- %s (Importance: %d)\n", e.Content, e.Importance)
		fmt.Fprintf(&b, "  *%s*\n", e.Timestamp.Format(exportTimeFormat))
	}
	b.WriteString("\n")

	working := grouped[model.CategoryWorking]
	fmt.Fprintf(&b, "## Working Memories (%d)\n\n", len(working))
	for _, e := range working {
		fmt.Fprintf(&b, "- %s\n", e.Content)
		fmt.Fprintf(&b, "  *%s*\n", e.Timestamp.Format(exportTimeFormat))
	}
	b.WriteString("\n")

	shortTerm := grouped[model.CategoryShortTerm]
	fmt.Fprintf(&b, "## Short-Term Memories (%d)\n\n", len(shortTerm))
	for _, e := range shortTerm {
		fmt.Fprintf(&b, "- %s\n", e.Content)
		fmt.Fprintf(&b, "  *%s*\n", e.Timestamp.Format(exportTimeFormat))
	}

	return b.String()
}
