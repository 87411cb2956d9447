package stages

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convopilot-core/server/internal/agent/model"
)

var testPromptCfg = model.ResponsePromptConfig{
	AssistantName: "Concierge",
	BusinessName:  "Northwind",
}

func lastMessage(t *testing.T, state *model.ConversationState) model.Message {
	t.Helper()
	require.NotEmpty(t, state.Messages)
	return state.Messages[len(state.Messages)-1]
}

func systemPromptSent(t *testing.T, responder *fakeResponder) string {
	t.Helper()
	require.NotEmpty(t, responder.gotMessages)
	return responder.gotMessages[0].Content
}

func TestGenerationEmptyWindowIsDeterministic(t *testing.T) {
	responder := &fakeResponder{content: "should never be used"}
	stage := NewGeneration(responder, testPromptCfg, GenerationOptions{HistoryWindow: 10})

	state := &model.ConversationState{ConversationID: "c1"}

	first, err := stage(context.Background(), state)
	require.NoError(t, err)
	second, err := stage(context.Background(), state)
	require.NoError(t, err)

	firstMsg := lastMessage(t, first)
	assert.Equal(t, model.RoleAI, firstMsg.Role)
	assert.Equal(t, NoHistoryMessage, firstMsg.Content)
	assert.Equal(t, firstMsg.Content, lastMessage(t, second).Content, "same input, same canned reply")
	assert.Zero(t, responder.calls, "no model call for an empty window")
}

func TestGenerationAppendsModelReply(t *testing.T) {
	responder := &fakeResponder{content: "We open at 9."}
	stage := NewGeneration(responder, testPromptCfg, GenerationOptions{HistoryWindow: 10})

	state := &model.ConversationState{
		ConversationID: "c1",
		Messages:       []model.Message{model.NewHumanMessage("when do you open?")},
		Context:        []string{"[1] opening hours are 9-18"},
	}
	out, err := stage(context.Background(), state)

	require.NoError(t, err)
	msg := lastMessage(t, out)
	assert.Equal(t, model.RoleAI, msg.Role)
	assert.Equal(t, "We open at 9.", msg.Content)
	assert.Len(t, state.Messages, 1, "input state stays untouched")

	prompt := systemPromptSent(t, responder)
	assert.Contains(t, prompt, "Concierge")
	assert.Contains(t, prompt, "Northwind")
	assert.Contains(t, prompt, "[1] opening hours are 9-18")
	assert.Contains(t, prompt, "Human: when do you open?")
}

func TestGenerationUsesPlaceholderWithoutContext(t *testing.T) {
	responder := &fakeResponder{content: "hi"}
	stage := NewGeneration(responder, testPromptCfg, GenerationOptions{HistoryWindow: 10})

	state := &model.ConversationState{
		ConversationID: "c1",
		Messages:       []model.Message{model.NewHumanMessage("obscure question")},
	}
	_, err := stage(context.Background(), state)

	require.NoError(t, err)
	assert.Contains(t, systemPromptSent(t, responder), NoContextPlaceholder)
}

func TestGenerationOmitsEmptyUserTurn(t *testing.T) {
	responder := &fakeResponder{content: "anything else I can help with?"}
	stage := NewGeneration(responder, testPromptCfg, GenerationOptions{HistoryWindow: 10})

	state := &model.ConversationState{
		ConversationID: "c1",
		Messages:       []model.Message{model.NewAIMessage("welcome back")},
	}
	out, err := stage(context.Background(), state)

	require.NoError(t, err)
	require.Len(t, responder.gotMessages, 1, "no empty user message reaches the provider")
	assert.Equal(t, schema.System, responder.gotMessages[0].Role)
	assert.Equal(t, "anything else I can help with?", lastMessage(t, out).Content)
}

func TestGenerationFallbackOnModelError(t *testing.T) {
	responder := &fakeResponder{err: errors.New("quota exceeded")}
	stage := NewGeneration(responder, testPromptCfg, GenerationOptions{HistoryWindow: 10})

	state := &model.ConversationState{
		ConversationID: "c1",
		Messages:       []model.Message{model.NewHumanMessage("hello")},
	}
	out, err := stage(context.Background(), state)

	require.NoError(t, err, "generation absorbs model failures")
	assert.Len(t, out.Messages, 2, "exactly one fallback appended")
	msg := lastMessage(t, out)
	assert.Equal(t, model.RoleAI, msg.Role)
	assert.Equal(t, FallbackMessage, msg.Content)
}

func TestGenerationFallbackOnEmptyReply(t *testing.T) {
	responder := &fakeResponder{content: "   "}
	stage := NewGeneration(responder, testPromptCfg, GenerationOptions{HistoryWindow: 10})

	state := &model.ConversationState{
		ConversationID: "c1",
		Messages:       []model.Message{model.NewHumanMessage("hello")},
	}
	out, err := stage(context.Background(), state)

	require.NoError(t, err)
	assert.Equal(t, FallbackMessage, lastMessage(t, out).Content)
}

func TestGenerationHistoryWindow(t *testing.T) {
	responder := &fakeResponder{content: "ok"}
	stage := NewGeneration(responder, testPromptCfg, GenerationOptions{HistoryWindow: 2})

	state := &model.ConversationState{
		ConversationID: "c1",
		Messages: []model.Message{
			model.NewHumanMessage("ancient question"),
			model.NewAIMessage("ancient answer"),
			model.NewHumanMessage("recent question"),
		},
	}
	_, err := stage(context.Background(), state)

	require.NoError(t, err)
	prompt := systemPromptSent(t, responder)
	assert.NotContains(t, prompt, "ancient question")
	assert.Contains(t, prompt, "ancient answer")
	assert.Contains(t, prompt, "recent question")
}

func TestGenerationActionSummary(t *testing.T) {
	responder := &fakeResponder{content: "booked!"}
	stage := NewGeneration(responder, testPromptCfg, GenerationOptions{HistoryWindow: 10, WithActionSummary: true})

	state := &model.ConversationState{
		ConversationID: "c1",
		Messages:       []model.Message{model.NewHumanMessage("book it and note it")},
		PendingActions: []model.PendingAction{
			{ID: "a1", Type: "book_appointment", Status: model.StatusCompleted, Data: map[string]any{"contact": "Alex"}},
			{ID: "a2", Type: "create_note", Status: model.StatusFailed, Data: map[string]any{"content": "x"}},
			{ID: "a3", Type: "set_reminder", Status: model.StatusPending},
		},
	}
	_, err := stage(context.Background(), state)

	require.NoError(t, err)
	prompt := systemPromptSent(t, responder)
	assert.Contains(t, prompt, "Action results:")
	assert.Contains(t, prompt, "Completed:")
	assert.Contains(t, prompt, `book_appointment: {"contact":"Alex"}`)
	assert.Contains(t, prompt, "Failed:")
	assert.Contains(t, prompt, "create_note:")
	assert.NotContains(t, prompt, "set_reminder", "unresolved actions stay out of the summary")
}

func TestGenerationNoSummaryWithoutResolvedActions(t *testing.T) {
	responder := &fakeResponder{content: "hi"}
	stage := NewGeneration(responder, testPromptCfg, GenerationOptions{HistoryWindow: 10, WithActionSummary: true})

	state := &model.ConversationState{
		ConversationID: "c1",
		Messages:       []model.Message{model.NewHumanMessage("hello")},
	}
	_, err := stage(context.Background(), state)

	require.NoError(t, err)
	assert.NotContains(t, systemPromptSent(t, responder), "Action results:")
}
