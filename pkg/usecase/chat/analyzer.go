package chat

import (
	"context"
	"regexp"
	"strings"

	"github.com/m-mizutani/alacbot/pkg/usecase/memory"
	"github.com/m-mizutani/goerr/v2"
)

// Analyzer extracts candidate facts and key information from raw dialogue
// text and feeds them into the memory store. It is a thin consumer of the
// store's write operations; all retention decisions stay in the store.
type Analyzer struct {
	memory *memory.Service
}

func NewAnalyzer(m *memory.Service) *Analyzer {
	return &Analyzer{memory: m}
}

type factPattern struct {
	re     *regexp.Regexp
	render func(groups []string) string
}

var factPatterns = []factPattern{
	{
		re: regexp.MustCompile(`(?i)my name is (\w+)`),
		render: func(g []string) string {
			return "User's name is " + g[0] + "."
		},
	},
	{
		re: regexp.MustCompile(`(?i)call me (\w+)`),
		render: func(g []string) string {
			return "User's name is " + g[0] + "."
		},
	},
	{
		re: regexp.MustCompile(`(?i)i (live|work) in ([^.!?]+)`),
		render: func(g []string) string {
			return "User " + strings.ToLower(g[0]) + "s in " + strings.TrimSpace(g[1]) + "."
		},
	},
	{
		re: regexp.MustCompile(`(?i)i (?:like|love|enjoy) ([^.!?]+)`),
		render: func(g []string) string {
			return "User likes: " + strings.TrimSpace(g[0]) + "."
		},
	},
}

// importanceKeywords raise the importance of an exchange when they appear
// in either side of it.
var importanceKeywords = []string{
	"important",
	"remember",
	"don't forget",
	"key",
	"critical",
	"urgent",
	"special",
	"unique",
}

// Analyze inspects one user/assistant exchange and stores extracted facts
// and key information.
func (a *Analyzer) Analyze(ctx context.Context, userID, userMessage, assistantResponse string) error {
	if err := a.extractFacts(ctx, userID, userMessage); err != nil {
		return err
	}
	return a.extractKeyInformation(ctx, userID, userMessage, assistantResponse)
}

func (a *Analyzer) extractFacts(ctx context.Context, userID, userMessage string) error {
	for _, p := range factPatterns {
		m := p.re.FindStringSubmatch(userMessage)
		if m == nil {
			continue
		}

		fact := p.render(m[1:])
		metadata := map[string]any{
			"extractedAt":     a.memory.Now().Format("2006-01-02 15:04:05"),
			"originalMessage": truncate(userMessage, 100),
		}
		if _, err := a.memory.AddFact(ctx, userID, fact, metadata); err != nil {
			return goerr.Wrap(err, "failed to store extracted fact")
		}
	}
	return nil
}

func (a *Analyzer) extractKeyInformation(ctx context.Context, userID, userMessage, assistantResponse string) error {
	// Long multi-sentence messages are worth keeping around for the session
	if len(userMessage) > 100 && strings.Count(userMessage, ".") >= 2 {
		if _, err := a.memory.AddShortTermMemory(ctx, userID,
			"User asked: "+truncate(userMessage, 150)+"...",
			map[string]any{"messageLength": len(userMessage)}); err != nil {
			return goerr.Wrap(err, "failed to store short-term memory")
		}
	}

	importance := calculateImportance(userMessage, assistantResponse)
	if importance > 70 {
		if _, err := a.memory.AddLongTermMemory(ctx, userID,
			"Key point from conversation: "+truncate(userMessage, 100),
			importance, nil); err != nil {
			return goerr.Wrap(err, "failed to store long-term memory")
		}
	}

	return nil
}

// calculateImportance scores an exchange 0-100: length, importance
// keywords, and questions each raise the base of 50.
func calculateImportance(userMessage, assistantResponse string) int {
	importance := 50

	if len(userMessage) > 200 {
		importance += 20
	}

	lowerUser := strings.ToLower(userMessage)
	lowerAssistant := strings.ToLower(assistantResponse)
	for _, keyword := range importanceKeywords {
		if strings.Contains(lowerUser, keyword) || strings.Contains(lowerAssistant, keyword) {
			importance += 15
			break
		}
	}

	if strings.Contains(userMessage, "?") {
		importance += 10
	}

	if importance > 100 {
		importance = 100
	}
	return importance
}
