package stages

import (
	"context"

	"github.com/convopilot-core/server/internal/agent/graph/parsers"
	"github.com/convopilot-core/server/internal/agent/model"
	"github.com/convopilot-core/server/internal/agent/registry"
	logx "github.com/convopilot-core/server/pkg/logger"

	"github.com/google/uuid"
)

// ExtractionOptions tunes the extraction stage. An empty Types list offers
// every registered action type to the model; a subset narrows the intent
// scope without changing the algorithm.
type ExtractionOptions struct {
	Types []string
}

// NewExtraction builds the action-extraction stage: offer the registry
// schemas to a function-calling model, validate whatever it selects, and on
// success persist the action and append it to state as pending. Anything the
// model hallucinates that fails parsing or validation is discarded silently;
// unvalidated arguments never reach persisted or in-memory state.
func NewExtraction(selector model.ToolSelector, reg *registry.Registry, store model.ActionStore, opts ExtractionOptions) Func {
	tools := reg.ToolInfos(opts.Types...)
	return func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		last, ok := state.LastHumanMessage()
		if !ok {
			logx.Debug().Str("conversation_id", state.ConversationID).Msg("Extraction skipped - no human message")
			return state, nil
		}

		selection, err := selector.SelectTool(ctx, last.Content, tools)
		if err != nil {
			logx.Error().Err(err).Str("conversation_id", state.ConversationID).
				Msg("Extraction model failed - continuing without action")
			return state, nil
		}
		if selection == nil {
			logx.Debug().Str("conversation_id", state.ConversationID).Msg("No action selected")
			return state, nil
		}

		data, err := parsers.ParseArguments(selection.Arguments)
		if err != nil {
			logx.Warn().Err(err).
				Str("conversation_id", state.ConversationID).
				Str("action_type", selection.Name).
				Msg("Discarding action with malformed arguments")
			return state, nil
		}

		if result := reg.Validate(selection.Name, data); !result.Valid {
			logx.Warn().
				Str("conversation_id", state.ConversationID).
				Str("action_type", selection.Name).
				Strs("violations", result.Errors).
				Msg("Discarding action that failed schema validation")
			return state, nil
		}
		data = reg.Normalize(selection.Name, data)

		// One canonical id for the durable record and the in-state entry.
		actionID := uuid.NewString()
		persisted, err := store.Create(ctx, model.CreateActionInput{
			ID:             actionID,
			ConversationID: state.ConversationID,
			Type:           selection.Name,
			Data:           data,
		})
		if err != nil {
			logx.Error().Err(err).
				Str("conversation_id", state.ConversationID).
				Str("action_type", selection.Name).
				Msg("Failed to persist extracted action - discarding")
			return state, nil
		}

		next := state.Clone()
		next.PendingActions = append(next.PendingActions, model.PendingAction{
			ID:     persisted.ID,
			Type:   persisted.Type,
			Data:   persisted.Data,
			Status: model.StatusPending,
		})

		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Str("action_id", persisted.ID).
			Str("action_type", persisted.Type).
			Msg("Action extracted")
		return next, nil
	}
}
