package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a Message. It is fixed at construction;
// there is no runtime sniffing of message shapes anywhere in the pipeline.
type Role string

const (
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
)

// Message is a single conversation entry. Content is immutable after creation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func NewHumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content, Timestamp: time.Now().UTC()}
}

func NewAIMessage(content string) Message {
	return Message{Role: RoleAI, Content: content, Timestamp: time.Now().UTC()}
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: time.Now().UTC()}
}

// PendingAction is the lightweight in-state view of an extracted action.
// Its ID is the canonical action id: the same uuid is used for the durable
// record, so extraction, persistence and execution all refer to one id.
type PendingAction struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Data   map[string]any `json:"data"`
	Status Status         `json:"status"`
}

// ConversationState is the value threaded through the pipeline. Stages never
// mutate it in place; they Clone and return a new value, so a failed stage
// leaves its input intact and retries are safe.
//
// Messages grows monotonically for the lifetime of a conversation (only an
// explicit clear removes entries). Context is a per-turn scratchpad fully
// replaced by each retrieval. PendingActions may carry over across turns
// until resolved.
type ConversationState struct {
	ConversationID string          `json:"conversation_id"`
	Messages       []Message       `json:"messages"`
	Context        []string        `json:"context"`
	PendingActions []PendingAction `json:"pending_actions"`
}

// NewConversationState creates an empty conversation with a fresh id.
func NewConversationState() *ConversationState {
	return &ConversationState{ConversationID: uuid.NewString()}
}

// Clone returns a deep copy. Data payloads are copied one level deep, which
// is sufficient for the flat key-value payloads the registry validates.
func (s *ConversationState) Clone() *ConversationState {
	next := &ConversationState{ConversationID: s.ConversationID}
	if s.Messages != nil {
		next.Messages = make([]Message, len(s.Messages))
		copy(next.Messages, s.Messages)
	}
	if s.Context != nil {
		next.Context = make([]string, len(s.Context))
		copy(next.Context, s.Context)
	}
	if s.PendingActions != nil {
		next.PendingActions = make([]PendingAction, len(s.PendingActions))
		for i, a := range s.PendingActions {
			data := make(map[string]any, len(a.Data))
			for k, v := range a.Data {
				data[k] = v
			}
			a.Data = data
			next.PendingActions[i] = a
		}
	}
	return next
}

// LastHumanMessage scans backward for the most recent human entry.
func (s *ConversationState) LastHumanMessage() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleHuman {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// RecentMessages returns the trailing window of at most n messages as a copy.
func (s *ConversationState) RecentMessages(n int) []Message {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	src := s.Messages
	if len(src) > n {
		src = src[len(src)-n:]
	}
	out := make([]Message, len(src))
	copy(out, src)
	return out
}

// PendingOnly returns the indexes of actions still in StatusPending.
func (s *ConversationState) PendingOnly() []int {
	var idx []int
	for i, a := range s.PendingActions {
		if a.Status == StatusPending {
			idx = append(idx, i)
		}
	}
	return idx
}
