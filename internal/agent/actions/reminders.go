package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	logx "github.com/convopilot-core/server/pkg/logger"
)

// ===================================
// Reminders Handler
// ===================================

type SetReminderInput struct {
	Message  string `json:"message"`
	RemindAt string `json:"remind_at"`
	Channel  string `json:"channel,omitempty"`
}

// RemindersHandler is a mock reminder scheduler. It validates the delivery
// time and pretends to enqueue the reminder.
type RemindersHandler struct{}

func NewRemindersHandler() *RemindersHandler {
	return &RemindersHandler{}
}

func (h *RemindersHandler) Handle(ctx context.Context, payload map[string]any) (*Result, error) {
	var in SetReminderInput
	if err := decodePayload(payload, &in); err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	if in.Message == "" || in.RemindAt == "" {
		return &Result{Success: false, Error: "message and remind_at are required"}, nil
	}
	at, err := time.Parse(time.RFC3339, in.RemindAt)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid remind_at %q, expected RFC3339", in.RemindAt)}, nil
	}
	if in.Channel == "" {
		in.Channel = "push"
	}

	reminderID := "rem-" + uuid.NewString()
	logx.Debug().
		Str("reminder_id", reminderID).
		Time("remind_at", at).
		Str("channel", in.Channel).
		Msg("Reminder scheduled")

	return &Result{
		Success: true,
		Result: map[string]any{
			"reminderId": reminderID,
			"remindAt":   at.UTC().Format(time.RFC3339),
			"channel":    in.Channel,
			"scheduled":  true,
		},
	}, nil
}
