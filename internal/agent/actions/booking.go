package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	logx "github.com/convopilot-core/server/pkg/logger"
)

// ===================================
// Booking Handler
// ===================================

type BookAppointmentInput struct {
	Contact         string   `json:"contact"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
	Attendees       []string `json:"attendees,omitempty"`
}

// BookingHandler is a mock scheduler: it validates the slot shape and
// fabricates a confirmed appointment id.
type BookingHandler struct{}

func NewBookingHandler() *BookingHandler {
	return &BookingHandler{}
}

func (h *BookingHandler) Handle(ctx context.Context, payload map[string]any) (*Result, error) {
	var in BookAppointmentInput
	if err := decodePayload(payload, &in); err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	if in.Contact == "" || in.Date == "" || in.Time == "" {
		return &Result{Success: false, Error: "contact, date and time are required"}, nil
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", in.Date)}, nil
	}
	if in.DurationMinutes == 0 {
		in.DurationMinutes = 30
	}

	appointmentID := "appt-" + uuid.NewString()
	logx.Debug().
		Str("appointment_id", appointmentID).
		Str("contact", in.Contact).
		Str("date", in.Date).
		Str("time", in.Time).
		Msg("Appointment booked")

	return &Result{
		Success: true,
		Result: map[string]any{
			"appointmentId":    appointmentID,
			"contact":          in.Contact,
			"date":             in.Date,
			"time":             in.Time,
			"duration_minutes": in.DurationMinutes,
			"confirmed":        true,
		},
	}, nil
}
