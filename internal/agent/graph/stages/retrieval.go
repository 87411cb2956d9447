package stages

import (
	"context"
	"fmt"

	"github.com/convopilot-core/server/internal/agent/model"
	logx "github.com/convopilot-core/server/pkg/logger"
)

const defaultTopK = 3

// NewRetrieval builds the retrieval stage: query the semantic store with the
// latest human message and replace the state's context with the formatted
// results. Store failures degrade to an empty context and never propagate.
func NewRetrieval(store model.SemanticStore, cfg model.RetrievalConfig, filter map[string]string) Func {
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		last, ok := state.LastHumanMessage()
		if !ok {
			logx.Debug().Str("conversation_id", state.ConversationID).Msg("Retrieval skipped - no human message")
			return state, nil
		}

		next := state.Clone()

		chunks, err := store.SimilaritySearch(ctx, last.Content, topK, filter)
		if err != nil {
			logx.Error().Err(err).Str("conversation_id", state.ConversationID).
				Msg("Semantic store query failed - degrading to empty context")
			next.Context = []string{}
			return next, nil
		}

		// Explicit overwrite either way: stale context from a previous turn
		// must never leak into this one.
		formatted := make([]string, 0, len(chunks))
		for i, c := range chunks {
			formatted = append(formatted, fmt.Sprintf("[%d] %s", i+1, c.Content))
		}
		next.Context = formatted

		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Int("chunks", len(formatted)).
			Msg("Context retrieved")
		return next, nil
	}
}
