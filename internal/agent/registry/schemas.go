package registry

// Builtin action types handled by the agent.
const (
	ActionBookAppointment = "book_appointment"
	ActionCreateNote      = "create_note"
	ActionSetReminder     = "set_reminder"
	ActionSearchKnowledge = "search_knowledge"
)

// NewDefault returns a registry preloaded with the builtin action schemas.
func NewDefault() *Registry {
	r := New()

	r.Define(ActionBookAppointment, Schema{
		Desc: "Book an appointment or meeting with a contact. Use whenever the user asks to schedule, book, or set up a meeting, call, or appointment.",
		Fields: map[string]Field{
			"contact": {
				Kind:     KindString,
				Desc:     "Name of the person or organization to meet with.",
				Required: true,
			},
			"date": {
				Kind:     KindString,
				Desc:     "Appointment date in YYYY-MM-DD format.",
				Required: true,
			},
			"time": {
				Kind:     KindString,
				Desc:     "Appointment start time in HH:MM 24h format.",
				Required: true,
			},
			"duration_minutes": {
				Kind:    KindInteger,
				Desc:    "Meeting length in minutes.",
				Default: 30,
			},
			"attendees": {
				Kind: KindArray,
				Desc: "Optional additional attendee names.",
			},
		},
	})

	r.Define(ActionCreateNote, Schema{
		Desc: "Save a note for the user. Use when the user asks to note something down, remember a fact, or keep a record.",
		Fields: map[string]Field{
			"title": {
				Kind:     KindString,
				Desc:     "Short note title.",
				Required: true,
			},
			"content": {
				Kind:     KindString,
				Desc:     "Full note body.",
				Required: true,
			},
			"tags": {
				Kind: KindArray,
				Desc: "Optional tags for grouping notes.",
			},
		},
	})

	r.Define(ActionSetReminder, Schema{
		Desc: "Set a reminder to be delivered later. Use when the user asks to be reminded of something at a specific time.",
		Fields: map[string]Field{
			"message": {
				Kind:     KindString,
				Desc:     "What to remind the user about.",
				Required: true,
			},
			"remind_at": {
				Kind:     KindString,
				Desc:     "Delivery time as an ISO-8601 timestamp.",
				Required: true,
			},
			"channel": {
				Kind:    KindString,
				Desc:    "Delivery channel.",
				Enum:    []string{"push", "email", "sms"},
				Default: "push",
			},
		},
	})

	r.Define(ActionSearchKnowledge, Schema{
		Desc: "Search the knowledge base for facts or documentation. Use when the user asks a question the knowledge base may answer.",
		Fields: map[string]Field{
			"query": {
				Kind:     KindString,
				Desc:     "Search keywords or question text.",
				Required: true,
			},
			"max_results": {
				Kind:    KindInteger,
				Desc:    "Maximum number of passages to return.",
				Default: 3,
			},
		},
	})

	return r
}
