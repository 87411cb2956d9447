package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/convopilot-core/server/internal/agent/model"
)

//go:embed template/response_prompt.txt
var responseSystemPrompt string

// ResponseVars carries the dynamic pieces of the response system prompt.
type ResponseVars struct {
	History string
	Context string
}

// RenderResponseSystem renders the response system prompt via the Eino
// prompt component, which also emits prompt callbacks for observability.
func RenderResponseSystem(ctx context.Context, config model.ResponsePromptConfig, vars ResponseVars) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(responseSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"AssistantName": config.AssistantName,
		"BusinessName":  config.BusinessName,
		"History":       vars.History,
		"Context":       vars.Context,
	})
	if err != nil {
		return "", fmt.Errorf("response prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("response prompt render: empty result")
	}
	return msgs[0].Content, nil
}
