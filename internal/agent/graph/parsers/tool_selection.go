package parsers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/convopilot-core/server/internal/agent/model"
)

// SelectedTool normalizes a model response into at most one tool selection.
// Providers drift between tool_calls shapes and sometimes emit calls with an
// empty name; all of that is resolved here so the pipeline only ever deals
// with model.ToolSelection. Returns nil when the model selected nothing.
func SelectedTool(msg *schema.Message) *model.ToolSelection {
	if msg == nil || len(msg.ToolCalls) == 0 {
		return nil
	}
	// Baseline design: a single action per turn; only the first call counts.
	call := msg.ToolCalls[0]
	name := strings.TrimSpace(call.Function.Name)
	if name == "" {
		return nil
	}
	return &model.ToolSelection{
		Name:      name,
		Arguments: call.Function.Arguments,
	}
}

// ParseArguments decodes the selection's JSON argument string into the
// free-form payload the registry validates.
func ParseArguments(arguments string) (map[string]any, error) {
	trimmed := strings.TrimSpace(arguments)
	if trimmed == "" {
		return map[string]any{}, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return nil, fmt.Errorf("parse tool arguments: %w", err)
	}
	return data, nil
}
