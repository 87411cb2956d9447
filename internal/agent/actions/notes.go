package actions

import (
	"context"
	"time"

	"github.com/google/uuid"

	logx "github.com/convopilot-core/server/pkg/logger"
)

// ===================================
// Notes Handler
// ===================================

type CreateNoteInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// NotesHandler is a mock note keeper; notes live only in process memory.
type NotesHandler struct {
	notes []CreateNoteInput
}

func NewNotesHandler() *NotesHandler {
	return &NotesHandler{}
}

func (h *NotesHandler) Handle(ctx context.Context, payload map[string]any) (*Result, error) {
	var in CreateNoteInput
	if err := decodePayload(payload, &in); err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	if in.Title == "" || in.Content == "" {
		return &Result{Success: false, Error: "title and content are required"}, nil
	}

	h.notes = append(h.notes, in)
	noteID := "note-" + uuid.NewString()
	logx.Debug().Str("note_id", noteID).Str("title", in.Title).Msg("Note created")

	return &Result{
		Success: true,
		Result: map[string]any{
			"noteId":    noteID,
			"title":     in.Title,
			"tags":      in.Tags,
			"createdAt": time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
