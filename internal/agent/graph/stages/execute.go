package stages

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/convopilot-core/server/internal/agent/actions"
	"github.com/convopilot-core/server/internal/agent/model"
	logx "github.com/convopilot-core/server/pkg/logger"
)

// DefaultActionTimeout bounds a single handler invocation.
const DefaultActionTimeout = 30 * time.Second

const genericHandlerError = "action handler failed"

// NewExecution builds the action-execution stage. Every action still in
// StatusPending is dispatched to its registered handler, racing a bounded
// timeout. Actions run concurrently and fully isolated: one failure never
// blocks or rolls back a sibling, and the returned state reflects every
// attempted transition even under partial failure. Already resolved or
// mid-flight actions are skipped untouched.
func NewExecution(handlers *actions.HandlerRegistry, store model.ActionStore, timeout time.Duration) Func {
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}
	return func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		pending := state.PendingOnly()
		if len(pending) == 0 {
			return state, nil
		}

		next := state.Clone()

		var wg sync.WaitGroup
		for _, i := range pending {
			wg.Add(1)
			go func(action *model.PendingAction) {
				defer wg.Done()
				executeOne(ctx, handlers, store, action, timeout, next.ConversationID)
			}(&next.PendingActions[i])
		}
		wg.Wait()

		return next, nil
	}
}

// executeOne drives a single action through its lifecycle. It writes only to
// the one PendingAction it owns, so concurrent siblings never contend.
func executeOne(ctx context.Context, handlers *actions.HandlerRegistry, store model.ActionStore, action *model.PendingAction, timeout time.Duration, conversationID string) {
	handler, ok := handlers.Lookup(action.Type)
	if !ok {
		failAction(ctx, store, action, fmt.Sprintf("no handler registered for action type %q", action.Type), conversationID)
		return
	}

	// Mark in_progress durably before invoking the handler, so a crash
	// mid-execution leaves a visible marker instead of a stale pending.
	transition(ctx, store, action, model.StatusInProgress, model.StatusUpdate{Status: model.StatusInProgress}, conversationID)

	result := invokeWithTimeout(ctx, handler, action.Data, timeout)

	if result.Success {
		transition(ctx, store, action, model.StatusCompleted, model.StatusUpdate{
			Status: model.StatusCompleted,
			Result: result.Result,
		}, conversationID)
		logx.Debug().
			Str("conversation_id", conversationID).
			Str("action_id", action.ID).
			Str("action_type", action.Type).
			Msg("Action completed")
		return
	}

	errMsg := result.Error
	if errMsg == "" {
		errMsg = genericHandlerError
	}
	transition(ctx, store, action, model.StatusFailed, model.StatusUpdate{
		Status: model.StatusFailed,
		Error:  errMsg,
	}, conversationID)
	logx.Warn().
		Str("conversation_id", conversationID).
		Str("action_id", action.ID).
		Str("action_type", action.Type).
		Str("error", errMsg).
		Msg("Action failed")
}

// invokeWithTimeout races the handler against the execution deadline. Panics
// inside the handler are recovered and reported as failures.
func invokeWithTimeout(ctx context.Context, handler actions.Handler, payload map[string]any, timeout time.Duration) *actions.Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan *actions.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &actions.Result{Success: false, Error: fmt.Sprintf("handler panic: %v", r)}
			}
		}()
		res, err := handler.Handle(ctx, payload)
		if err != nil {
			done <- &actions.Result{Success: false, Error: err.Error()}
			return
		}
		if res == nil {
			done <- &actions.Result{Success: false, Error: genericHandlerError}
			return
		}
		done <- res
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return &actions.Result{Success: false, Error: "action handler timed out"}
	}
}

// failAction resolves an action that never reached a handler. The lifecycle
// defines no direct pending->failed edge, so the record is stepped through
// in_progress first. That is two durable writes, matching the history a
// handler that failed immediately would leave.
func failAction(ctx context.Context, store model.ActionStore, action *model.PendingAction, errMsg string, conversationID string) {
	transition(ctx, store, action, model.StatusInProgress, model.StatusUpdate{Status: model.StatusInProgress}, conversationID)
	transition(ctx, store, action, model.StatusFailed, model.StatusUpdate{Status: model.StatusFailed, Error: errMsg}, conversationID)
	logx.Warn().
		Str("conversation_id", conversationID).
		Str("action_id", action.ID).
		Str("action_type", action.Type).
		Str("error", errMsg).
		Msg("Action failed")
}

// transition applies a guarded status change to the in-state entry and
// mirrors it durably. Store failures are logged, not propagated: batch
// semantics are best effort per item.
func transition(ctx context.Context, store model.ActionStore, action *model.PendingAction, next model.Status, update model.StatusUpdate, conversationID string) {
	applied, err := action.Status.Transition(next)
	if err != nil {
		logx.Warn().Err(err).
			Str("conversation_id", conversationID).
			Str("action_id", action.ID).
			Msg("Skipping illegal in-state transition")
		return
	}
	action.Status = applied

	if err := store.UpdateStatus(ctx, action.ID, update); err != nil {
		logx.Error().Err(err).
			Str("conversation_id", conversationID).
			Str("action_id", action.ID).
			Str("status", string(next)).
			Msg("Failed to persist action status")
	}
}
