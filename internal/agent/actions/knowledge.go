package actions

import (
	"context"

	"github.com/convopilot-core/server/internal/agent/model"
	logx "github.com/convopilot-core/server/pkg/logger"
)

// ===================================
// Knowledge Search Handler
// ===================================

type SearchKnowledgeInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

// KnowledgeHandler answers search actions from the same semantic store the
// retrieval stage queries.
type KnowledgeHandler struct {
	store model.SemanticStore
}

func NewKnowledgeHandler(store model.SemanticStore) *KnowledgeHandler {
	return &KnowledgeHandler{store: store}
}

func (h *KnowledgeHandler) Handle(ctx context.Context, payload map[string]any) (*Result, error) {
	var in SearchKnowledgeInput
	if err := decodePayload(payload, &in); err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	if in.Query == "" {
		return &Result{Success: false, Error: "query is required"}, nil
	}
	if in.MaxResults <= 0 {
		in.MaxResults = 3
	}

	chunks, err := h.store.SimilaritySearch(ctx, in.Query, in.MaxResults, nil)
	if err != nil {
		logx.Error().Err(err).Str("query", in.Query).Msg("Knowledge search failed")
		return &Result{Success: false, Error: "knowledge search failed"}, nil
	}

	matches := make([]map[string]any, 0, len(chunks))
	for _, c := range chunks {
		matches = append(matches, map[string]any{
			"content":  c.Content,
			"metadata": c.Metadata,
			"score":    c.Score,
		})
	}

	return &Result{
		Success: true,
		Result: map[string]any{
			"matches": matches,
			"total":   len(matches),
		},
	}, nil
}
