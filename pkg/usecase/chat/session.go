// Package chat manages per-user conversation sessions: prompt construction
// from the memory store, delegation to the external agent runtime, and
// memory extraction from the dialogue.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/alacbot/pkg/adapter"
	"github.com/m-mizutani/alacbot/pkg/model"
	"github.com/m-mizutani/alacbot/pkg/usecase/memory"
	"github.com/m-mizutani/alacbot/pkg/utils/logging"
	"github.com/m-mizutani/alacbot/pkg/workspace"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// relevantMemoryLimit is how many ranked memories are injected into the
// system prompt per turn.
const relevantMemoryLimit = 5

// Message is one logged turn of the session, kept for the markdown export.
type Message struct {
	Role    string
	Content string
	At      time.Time
}

// Session is a memory-augmented conversation for a single user.
type Session struct {
	runtime   adapter.Runtime
	memory    *memory.Service
	workspace *workspace.Workspace
	analyzer  *Analyzer

	userID    string
	sessionID string
	startedAt time.Time
	now       func() time.Time

	history  []*genai.Content
	messages []Message
}

// NewInput contains parameters for creating a session.
type NewInput struct {
	Runtime   adapter.Runtime
	Memory    *memory.Service
	Workspace *workspace.Workspace
	UserID    string

	// Clock overrides the time source. Used by tests.
	Clock func() time.Time
}

func New(input NewInput) (*Session, error) {
	if input.Runtime == nil {
		return nil, goerr.New("runtime is required")
	}
	if input.Memory == nil {
		return nil, goerr.New("memory service is required")
	}
	if input.UserID == "" {
		return nil, goerr.New("user id is required")
	}

	now := input.Clock
	if now == nil {
		now = time.Now
	}

	return &Session{
		runtime:   input.Runtime,
		memory:    input.Memory,
		workspace: input.Workspace,
		analyzer:  NewAnalyzer(input.Memory),
		userID:    input.UserID,
		sessionID: uuid.NewString(),
		startedAt: now(),
		now:       now,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.sessionID
}

// Send records the user message, builds a memory-augmented prompt, invokes
// the runtime, and extracts new memories from the exchange. It returns the
// assistant's response text.
func (s *Session) Send(ctx context.Context, message string) (string, error) {
	if _, err := s.memory.AddWorkingMemory(ctx, s.userID, "User said: "+message,
		map[string]any{"type": "user-message"}); err != nil {
		return "", goerr.Wrap(err, "failed to record user message")
	}

	relevant := s.memory.GetRelevantMemories(s.userID, message, relevantMemoryLimit)
	summary := s.memory.GenerateMemorySummary(s.userID)
	systemPrompt := buildSystemPrompt(summary, relevant)

	s.history = append(s.history, genai.NewContentFromText(message, genai.RoleUser))
	s.messages = append(s.messages, Message{Role: "user", Content: message, At: s.now()})

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
	}

	resp, err := s.runtime.GenerateContent(ctx, s.history, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content")
	}

	text := responseText(resp)
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		s.history = append(s.history, resp.Candidates[0].Content)
	}
	s.messages = append(s.messages, Message{Role: "assistant", Content: text, At: s.now()})

	if err := s.analyzer.Analyze(ctx, s.userID, message, text); err != nil {
		// Extraction failures should not break the conversation
		logging.From(ctx).Warn("failed to analyze conversation", "user", s.userID, "error", err)
	}

	if text != "" {
		if _, err := s.memory.AddWorkingMemory(ctx, s.userID,
			"AI responded: "+truncate(text, 100)+"...", nil); err != nil {
			logging.From(ctx).Warn("failed to record assistant response", "user", s.userID, "error", err)
		}
	}

	return text, nil
}

// buildSystemPrompt combines the memory summary and the ranked relevant
// memories into the system instruction for the runtime.
func buildSystemPrompt(summary string, relevant []*model.MemoryEntry) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI assistant with persistent memory.\n\n")
	b.WriteString(summary)
	b.WriteString("\n\n### Relevant Context from Previous Conversations\n")

	for i, e := range relevant {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e.Content)
	}

	b.WriteString(`
When responding:
1. Use the stored information to provide personalized responses
2. Remember facts about the user
3. Build on previous conversations
4. Ask clarifying questions if needed to better understand the user's preferences`)

	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
