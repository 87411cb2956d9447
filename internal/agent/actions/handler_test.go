package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convopilot-core/server/internal/agent/model"
)

func TestHandlerRegistryDispatch(t *testing.T) {
	registry := NewHandlerRegistry()
	registry.Register("book_appointment", NewBookingHandler())
	registry.Register("create_note", NewNotesHandler())

	h, ok := registry.Lookup("create_note")
	assert.True(t, ok)
	assert.NotNil(t, h)

	_, ok = registry.Lookup("launch_rocket")
	assert.False(t, ok)

	assert.Equal(t, []string{"book_appointment", "create_note"}, registry.Types())
}

func TestBookingHandler(t *testing.T) {
	h := NewBookingHandler()

	res, err := h.Handle(context.Background(), map[string]any{
		"contact": "Alex",
		"date":    "2025-03-01",
		"time":    "14:00",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Result["appointmentId"], "appt-")
	assert.Equal(t, 30, res.Result["duration_minutes"], "default duration applies")
	assert.Equal(t, true, res.Result["confirmed"])
}

func TestBookingHandlerRejectsBadInput(t *testing.T) {
	h := NewBookingHandler()

	res, err := h.Handle(context.Background(), map[string]any{"contact": "Alex"})
	require.NoError(t, err, "business failures are results, not errors")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)

	res, err = h.Handle(context.Background(), map[string]any{
		"contact": "Alex",
		"date":    "March 1st",
		"time":    "14:00",
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "March 1st")
}

func TestNotesHandler(t *testing.T) {
	h := NewNotesHandler()

	res, err := h.Handle(context.Background(), map[string]any{
		"title":   "follow up",
		"content": "send the contract",
		"tags":    []any{"sales"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Result["noteId"], "note-")

	res, err = h.Handle(context.Background(), map[string]any{"title": "no body"})
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestRemindersHandler(t *testing.T) {
	h := NewRemindersHandler()

	res, err := h.Handle(context.Background(), map[string]any{
		"message":   "send contract",
		"remind_at": "2025-03-02T09:00:00Z",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "push", res.Result["channel"], "channel defaults to push")

	res, err = h.Handle(context.Background(), map[string]any{
		"message":   "send contract",
		"remind_at": "tomorrow morning",
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "RFC3339")
}

type staticSemanticStore struct {
	chunks []model.Chunk
	err    error
	gotK   int
}

func (s *staticSemanticStore) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]model.Chunk, error) {
	s.gotK = k
	return s.chunks, s.err
}

func TestKnowledgeHandler(t *testing.T) {
	store := &staticSemanticStore{chunks: []model.Chunk{
		{Content: "we open at 9", Metadata: map[string]string{"source": "faq"}, Score: 0.9},
	}}
	h := NewKnowledgeHandler(store)

	res, err := h.Handle(context.Background(), map[string]any{"query": "opening hours"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, store.gotK, "max_results defaults to 3")
	assert.Equal(t, 1, res.Result["total"])

	matches := res.Result["matches"].([]map[string]any)
	require.Len(t, matches, 1)
	assert.Equal(t, "we open at 9", matches[0]["content"])
}

func TestKnowledgeHandlerFailures(t *testing.T) {
	h := NewKnowledgeHandler(&staticSemanticStore{})

	res, err := h.Handle(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "query")

	h = NewKnowledgeHandler(&staticSemanticStore{err: errors.New("redis down")})
	res, err = h.Handle(context.Background(), map[string]any{"query": "anything"})
	require.NoError(t, err)
	assert.False(t, res.Success)
}
