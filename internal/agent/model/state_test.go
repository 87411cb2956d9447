package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversationStateAssignsID(t *testing.T) {
	a := NewConversationState()
	b := NewConversationState()

	assert.NotEmpty(t, a.ConversationID)
	assert.NotEqual(t, a.ConversationID, b.ConversationID)
}

func TestCloneIsIndependent(t *testing.T) {
	state := &ConversationState{
		ConversationID: "c1",
		Messages:       []Message{NewHumanMessage("hi")},
		Context:        []string{"[1] chunk"},
		PendingActions: []PendingAction{
			{ID: "a1", Type: "create_note", Data: map[string]any{"title": "x"}, Status: StatusPending},
		},
	}

	next := state.Clone()
	next.Messages = append(next.Messages, NewAIMessage("hello"))
	next.Context[0] = "mutated"
	next.PendingActions[0].Status = StatusCompleted
	next.PendingActions[0].Data["title"] = "y"

	assert.Len(t, state.Messages, 1)
	assert.Equal(t, "[1] chunk", state.Context[0])
	assert.Equal(t, StatusPending, state.PendingActions[0].Status)
	assert.Equal(t, "x", state.PendingActions[0].Data["title"])
}

func TestLastHumanMessage(t *testing.T) {
	state := &ConversationState{
		Messages: []Message{
			NewHumanMessage("first"),
			NewAIMessage("reply"),
			NewHumanMessage("second"),
			NewAIMessage("reply 2"),
		},
	}

	msg, ok := state.LastHumanMessage()
	require.True(t, ok)
	assert.Equal(t, "second", msg.Content)

	empty := &ConversationState{Messages: []Message{NewAIMessage("only ai")}}
	_, ok = empty.LastHumanMessage()
	assert.False(t, ok)
}

func TestRecentMessagesWindow(t *testing.T) {
	state := &ConversationState{}
	for i := 0; i < 15; i++ {
		state.Messages = append(state.Messages, NewHumanMessage("m"))
	}

	window := state.RecentMessages(10)
	assert.Len(t, window, 10)

	all := state.RecentMessages(100)
	assert.Len(t, all, 15)

	assert.Nil(t, (&ConversationState{}).RecentMessages(10))
	assert.Nil(t, state.RecentMessages(0))
}

func TestPendingOnly(t *testing.T) {
	state := &ConversationState{
		PendingActions: []PendingAction{
			{ID: "a", Status: StatusPending},
			{ID: "b", Status: StatusCompleted},
			{ID: "c", Status: StatusPending},
			{ID: "d", Status: StatusCancelled},
		},
	}

	assert.Equal(t, []int{0, 2}, state.PendingOnly())
}
