package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Responder is the conversational model contract. It may fail on timeouts or
// rate limits; the generation stage absorbs those failures into a fallback
// reply, never a request error.
type Responder interface {
	Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
}

// ToolSelection is the normalized result of a function-calling model run:
// one selected tool name plus its raw JSON argument string. Any provider API
// shape drift (tool_calls vs. function_call and the like) is resolved at the
// provider adapter, so the pipeline only ever sees this value.
type ToolSelection struct {
	Name      string
	Arguments string
}

// ToolSelector is the function-calling model contract. A nil selection with
// a nil error means the model chose no tool, which is a normal outcome.
type ToolSelector interface {
	SelectTool(ctx context.Context, input string, tools []*schema.ToolInfo) (*ToolSelection, error)
}
