package stages

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/convopilot-core/server/internal/agent/model"
)

type fakeSemanticStore struct {
	chunks []model.Chunk
	err    error
}

func (f *fakeSemanticStore) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]model.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.chunks) > k {
		return f.chunks[:k], nil
	}
	return f.chunks, nil
}

type fakeSelector struct {
	selection *model.ToolSelection
	err       error
	gotTools  []*schema.ToolInfo
}

func (f *fakeSelector) SelectTool(ctx context.Context, input string, tools []*schema.ToolInfo) (*model.ToolSelection, error) {
	f.gotTools = tools
	if f.err != nil {
		return nil, f.err
	}
	return f.selection, nil
}

type fakeResponder struct {
	content     string
	err         error
	calls       int
	gotMessages []*schema.Message
}

func (f *fakeResponder) Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	f.calls++
	f.gotMessages = messages
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

// memActionStore is an in-memory ActionStore with the same transition
// semantics as the Redis implementation.
type memActionStore struct {
	mu          sync.Mutex
	actions     map[string]*model.PersistedAction
	createErr   error
	created     int
	transitions map[string][]model.Status
}

func newMemActionStore() *memActionStore {
	return &memActionStore{
		actions:     map[string]*model.PersistedAction{},
		transitions: map[string][]model.Status{},
	}
}

func (s *memActionStore) Create(ctx context.Context, in model.CreateActionInput) (*model.PersistedAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	now := time.Now().UTC()
	action := &model.PersistedAction{
		ID:             in.ID,
		ConversationID: in.ConversationID,
		Type:           in.Type,
		Status:         model.StatusPending,
		Data:           in.Data,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.actions[in.ID] = action
	s.created++
	return action, nil
}

func (s *memActionStore) Get(ctx context.Context, id string) (*model.PersistedAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	action, ok := s.actions[id]
	if !ok {
		return nil, nil
	}
	copied := *action
	return &copied, nil
}

func (s *memActionStore) UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	action, ok := s.actions[id]
	if !ok {
		return fmt.Errorf("action %s not found", id)
	}
	next, err := action.Status.Transition(update.Status)
	if err != nil {
		return err
	}
	action.Status = next
	s.transitions[id] = append(s.transitions[id], next)
	if update.Result != nil {
		action.Result = update.Result
	}
	if update.Error != "" {
		action.Error = update.Error
	}
	action.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memActionStore) ListPending(ctx context.Context, limit int) ([]*model.PersistedAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.PersistedAction
	for _, action := range s.actions {
		if action.Status != model.StatusPending {
			continue
		}
		copied := *action
		out = append(out, &copied)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

var (
	_ model.SemanticStore = (*fakeSemanticStore)(nil)
	_ model.ToolSelector  = (*fakeSelector)(nil)
	_ model.Responder     = (*fakeResponder)(nil)
	_ model.ActionStore   = (*memActionStore)(nil)
)
