package conversations

import (
	"context"
	"strings"

	"github.com/convopilot-core/server/internal/agent/model"
	logx "github.com/convopilot-core/server/pkg/logger"
)

const defaultHistoryWindow = 10

// Manager mediates between the pipeline and the durable conversation store:
// load-or-create around each turn, save after, plus the explicit clear
// operation and transcript helpers for prompt assembly.
type Manager struct {
	store         model.ConversationStore
	historyWindow int
}

func NewManager(store model.ConversationStore, config model.ConversationConfig) *Manager {
	window := config.HistoryWindow
	if window <= 0 {
		window = defaultHistoryWindow
	}
	return &Manager{store: store, historyWindow: window}
}

// LoadOrCreate returns the stored state for the id, or a fresh conversation
// when the id is empty or unknown.
func (m *Manager) LoadOrCreate(ctx context.Context, conversationID string) (*model.ConversationState, error) {
	if conversationID == "" {
		return model.NewConversationState(), nil
	}
	state, err := m.store.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = model.NewConversationState()
		state.ConversationID = conversationID
		logx.Debug().Str("conversation_id", conversationID).Msg("Starting new conversation")
	}
	return state, nil
}

// Save persists the state after a completed turn.
func (m *Manager) Save(ctx context.Context, state *model.ConversationState) error {
	return m.store.Put(ctx, state)
}

// Clear removes all history for a conversation. This is the only operation
// that deletes messages.
func (m *Manager) Clear(ctx context.Context, conversationID string) error {
	return m.store.Delete(ctx, conversationID)
}

// HistoryWindow returns the configured generation window size.
func (m *Manager) HistoryWindow() int {
	return m.historyWindow
}

// BuildTranscript renders messages as a role-labeled transcript. Messages
// with no content are skipped so one malformed entry never kills a turn.
func BuildTranscript(messages []model.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		b.WriteString(roleLabel(msg.Role))
		b.WriteString(": ")
		b.WriteString(content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func roleLabel(role model.Role) string {
	switch role {
	case model.RoleHuman:
		return "Human"
	case model.RoleAI:
		return "Assistant"
	default:
		return "System"
	}
}
