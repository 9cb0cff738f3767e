package chat_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/alacbot/pkg/model"
	"github.com/m-mizutani/alacbot/pkg/usecase/chat"
	"github.com/m-mizutani/alacbot/pkg/workspace"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

// mockRuntime is a mock implementation of adapter.Runtime
type mockRuntime struct {
	generateFunc func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	calls        []*genai.GenerateContentConfig
}

func (m *mockRuntime) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls = append(m.calls, config)
	if m.generateFunc != nil {
		return m.generateFunc(ctx, contents, config)
	}
	return textResponse("OK"), nil
}

func (m *mockRuntime) CreateChat(ctx context.Context, config *genai.GenerateContentConfig, history []*genai.Content) (*genai.Chat, error) {
	return nil, errors.New("not implemented")
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}
}

func systemPromptOf(config *genai.GenerateContentConfig) string {
	if config == nil || config.SystemInstruction == nil || len(config.SystemInstruction.Parts) == 0 {
		return ""
	}
	return config.SystemInstruction.Parts[0].Text
}

func TestSessionRequiresCollaborators(t *testing.T) {
	svc := newTestMemory(t)

	_, err := chat.New(chat.NewInput{Memory: svc, UserID: "u1"})
	gt.Error(t, err)
	_, err = chat.New(chat.NewInput{Runtime: &mockRuntime{}, UserID: "u1"})
	gt.Error(t, err)
	_, err = chat.New(chat.NewInput{Runtime: &mockRuntime{}, Memory: svc})
	gt.Error(t, err)
}

func TestSendBuildsMemoryAugmentedPrompt(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)

	_, err := svc.AddFact(ctx, "u1", "User's name is Alex.", nil)
	gt.NoError(t, err)

	runtime := &mockRuntime{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse("Hi Alex!"), nil
		},
	}

	session, err := chat.New(chat.NewInput{Runtime: runtime, Memory: svc, UserID: "u1"})
	gt.NoError(t, err)

	response, err := session.Send(ctx, "Do you know my name?")
	gt.NoError(t, err)
	gt.Equal(t, response, "Hi Alex!")

	gt.A(t, runtime.calls).Length(1)
	prompt := systemPromptOf(runtime.calls[0])
	gt.S(t, prompt).Contains("## User Memory Summary")
	gt.S(t, prompt).Contains("User's name is Alex.")
	gt.S(t, prompt).Contains("### Relevant Context from Previous Conversations")
}

func TestSendRecordsWorkingMemory(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)

	session, err := chat.New(chat.NewInput{Runtime: &mockRuntime{}, Memory: svc, UserID: "u1"})
	gt.NoError(t, err)

	_, err = session.Send(ctx, "hello there")
	gt.NoError(t, err)

	var contents []string
	for _, e := range svc.GetAvailableMemories("u1") {
		if e.Category == model.CategoryWorking {
			contents = append(contents, e.Content)
		}
	}
	gt.True(t, slicesContains(contents, "User said: hello there"))
	gt.True(t, slicesContains(contents, "AI responded: OK..."))
}

func TestSendExtractsMemoriesFromExchange(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)

	session, err := chat.New(chat.NewInput{Runtime: &mockRuntime{}, Memory: svc, UserID: "u1"})
	gt.NoError(t, err)

	_, err = session.Send(ctx, "My name is Alex")
	gt.NoError(t, err)

	facts := entriesByCategory(svc, "u1", model.CategoryFact)
	gt.A(t, facts).Length(1)
	gt.Equal(t, facts[0].Content, "User's name is Alex.")
}

func TestSendKeepsConversationHistory(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)

	var lastContents []*genai.Content
	runtime := &mockRuntime{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			lastContents = contents
			return textResponse("reply"), nil
		},
	}

	session, err := chat.New(chat.NewInput{Runtime: runtime, Memory: svc, UserID: "u1"})
	gt.NoError(t, err)

	_, err = session.Send(ctx, "first message")
	gt.NoError(t, err)
	gt.A(t, lastContents).Length(1)

	_, err = session.Send(ctx, "second message")
	gt.NoError(t, err)
	// user, model, user
	gt.A(t, lastContents).Length(3)
}

func TestSendRuntimeFailure(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)

	runtime := &mockRuntime{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("runtime unavailable")
		},
	}

	session, err := chat.New(chat.NewInput{Runtime: runtime, Memory: svc, UserID: "u1"})
	gt.NoError(t, err)

	_, err = session.Send(ctx, "hello")
	gt.Error(t, err)
}

func TestSessionSave(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)

	ws := workspace.New(t.TempDir())
	gt.NoError(t, ws.Init())

	session, err := chat.New(chat.NewInput{
		Runtime:   &mockRuntime{},
		Memory:    svc,
		Workspace: ws,
		UserID:    "u1",
		Clock:     func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	gt.NoError(t, err)

	_, err = session.Send(ctx, "hello")
	gt.NoError(t, err)
	gt.NoError(t, session.Close())

	data, err := os.ReadFile(ws.SessionPath("u1", session.ID()))
	gt.NoError(t, err)

	doc := string(data)
	gt.S(t, doc).Contains("# Session "+session.ID())
	gt.S(t, doc).Contains("**User**: u1")
	gt.S(t, doc).Contains("## user (2025-06-01 12:00:00)")
	gt.S(t, doc).Contains("hello")
	gt.S(t, doc).Contains("## assistant")
	gt.S(t, doc).Contains("OK")
}
