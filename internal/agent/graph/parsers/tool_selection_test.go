package parsers

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolCallMessage(calls ...schema.ToolCall) *schema.Message {
	return &schema.Message{Role: schema.Assistant, ToolCalls: calls}
}

func TestSelectedTool(t *testing.T) {
	sel := SelectedTool(toolCallMessage(schema.ToolCall{
		Function: schema.FunctionCall{Name: "book_appointment", Arguments: `{"contact":"Alex"}`},
	}))
	require.NotNil(t, sel)
	assert.Equal(t, "book_appointment", sel.Name)
	assert.Equal(t, `{"contact":"Alex"}`, sel.Arguments)
}

func TestSelectedToolTakesFirstOnly(t *testing.T) {
	sel := SelectedTool(toolCallMessage(
		schema.ToolCall{Function: schema.FunctionCall{Name: "create_note", Arguments: `{}`}},
		schema.ToolCall{Function: schema.FunctionCall{Name: "set_reminder", Arguments: `{}`}},
	))
	require.NotNil(t, sel)
	assert.Equal(t, "create_note", sel.Name)
}

func TestSelectedToolNone(t *testing.T) {
	assert.Nil(t, SelectedTool(nil))
	assert.Nil(t, SelectedTool(&schema.Message{Role: schema.Assistant, Content: "plain answer"}))
	assert.Nil(t, SelectedTool(toolCallMessage(schema.ToolCall{
		Function: schema.FunctionCall{Name: "  ", Arguments: `{}`},
	})), "hallucinated empty-name calls are treated as no selection")
}

func TestParseArguments(t *testing.T) {
	data, err := ParseArguments(`{"contact":"Alex","duration_minutes":30}`)
	require.NoError(t, err)
	assert.Equal(t, "Alex", data["contact"])
	assert.Equal(t, float64(30), data["duration_minutes"])

	data, err = ParseArguments("  ")
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = ParseArguments(`{"contact":`)
	assert.Error(t, err)

	_, err = ParseArguments(`["not","an","object"]`)
	assert.Error(t, err)
}
