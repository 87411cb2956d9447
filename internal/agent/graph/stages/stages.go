package stages

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/convopilot-core/server/internal/agent/model"
)

// Graph node names.
const (
	NodeRetrieval           = "Retrieval"
	NodeExtractActions      = "ExtractActions"
	NodeExecuteActions      = "ExecuteActions"
	NodeGenerate            = "Generate"
	NodeGenerateWithSummary = "GenerateWithSummary"
)

// Func is one pipeline stage: it takes a conversation state value and
// returns a new one, never mutating its input. Foreseeable external-call
// failures are absorbed inside the stage per the error taxonomy; only
// genuinely unexpected failures escape to the orchestrator boundary.
type Func func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error)

// Lambda wraps a stage func as an eino graph node.
func Lambda(f Func) *compose.Lambda {
	return compose.InvokableLambda(compose.InvokeWOOpt[*model.ConversationState, *model.ConversationState](f))
}
