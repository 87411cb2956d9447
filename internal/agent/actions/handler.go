package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Result is what a handler reports back to the execution stage.
type Result struct {
	Success bool           `json:"success"`
	Result  map[string]any `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Handler executes one action type's business logic. Implementations are
// swappable; the pipeline only depends on this contract.
type Handler interface {
	Handle(ctx context.Context, payload map[string]any) (*Result, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload map[string]any) (*Result, error)

func (f HandlerFunc) Handle(ctx context.Context, payload map[string]any) (*Result, error) {
	return f(ctx, payload)
}

// HandlerRegistry is the static dispatch table from action type to handler.
// Register at startup, then read-only.
type HandlerRegistry struct {
	handlers map[string]Handler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: map[string]Handler{}}
}

func (r *HandlerRegistry) Register(actionType string, h Handler) {
	r.handlers[actionType] = h
}

func (r *HandlerRegistry) Lookup(actionType string) (Handler, bool) {
	h, ok := r.handlers[actionType]
	return h, ok
}

// Types returns registered action types in stable order.
func (r *HandlerRegistry) Types() []string {
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// decodePayload maps a free-form payload onto a typed input struct via a
// JSON round trip, the same shape the registry validated.
func decodePayload(payload map[string]any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}
