package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/convopilot-core/server/internal/agent/graph/conversations"
	"github.com/convopilot-core/server/internal/agent/graph/prompts"
	"github.com/convopilot-core/server/internal/agent/model"
	logx "github.com/convopilot-core/server/pkg/logger"
)

const (
	// NoHistoryMessage is the deterministic reply for an empty history window.
	NoHistoryMessage = "Hello! How can I help you today?"
	// NoContextPlaceholder fills the prompt when retrieval produced nothing;
	// the template never receives an empty context field.
	NoContextPlaceholder = "No relevant context found."
	// FallbackMessage is the fixed apologetic reply when generation fails.
	FallbackMessage = "I'm sorry, I ran into a problem answering that. Please try again."
)

// GenerationOptions tunes the response-generation stage.
type GenerationOptions struct {
	HistoryWindow int
	// WithActionSummary appends a completed/failed action summary to the
	// prompt context, used on the branch where actions were executed.
	WithActionSummary bool
}

// NewGeneration builds the response-generation stage. Every failure mode
// ends in an appended ai message: a canned greeting for an empty window, the
// model's reply on success, a fixed apology otherwise. This stage never
// surfaces an error to the orchestrator.
func NewGeneration(responder model.Responder, promptCfg model.ResponsePromptConfig, opts GenerationOptions) Func {
	window := opts.HistoryWindow
	if window <= 0 {
		window = 10
	}
	return func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		next := state.Clone()

		recent := state.RecentMessages(window)
		if len(recent) == 0 {
			logx.Debug().Str("conversation_id", state.ConversationID).Msg("Empty history window - canned reply")
			next.Messages = append(next.Messages, model.NewAIMessage(NoHistoryMessage))
			return next, nil
		}

		transcript := conversations.BuildTranscript(recent)

		contextBlock := strings.TrimSpace(strings.Join(state.Context, "\n"))
		if contextBlock == "" {
			contextBlock = NoContextPlaceholder
		}
		if opts.WithActionSummary {
			if summary := buildActionSummary(state.PendingActions); summary != "" {
				contextBlock += "\n\n" + summary
			}
		}

		systemPrompt, err := prompts.RenderResponseSystem(ctx, promptCfg, prompts.ResponseVars{
			History: transcript,
			Context: contextBlock,
		})
		if err != nil {
			logx.Error().Err(err).Str("conversation_id", state.ConversationID).Msg("Prompt render failed - fallback reply")
			next.Messages = append(next.Messages, model.NewAIMessage(FallbackMessage))
			return next, nil
		}

		// The window can hold only ai/system entries; never send an empty
		// user turn to the provider, the transcript already carries history.
		input := []*schema.Message{schema.SystemMessage(systemPrompt)}
		if lastInput, ok := state.LastHumanMessage(); ok && strings.TrimSpace(lastInput.Content) != "" {
			input = append(input, schema.UserMessage(lastInput.Content))
		}
		out, err := responder.Generate(ctx, input)
		if err != nil || out == nil || strings.TrimSpace(out.Content) == "" {
			logx.Error().Err(err).Str("conversation_id", state.ConversationID).
				Msg("Response generation failed - fallback reply")
			next.Messages = append(next.Messages, model.NewAIMessage(FallbackMessage))
			return next, nil
		}

		next.Messages = append(next.Messages, model.NewAIMessage(out.Content))
		return next, nil
	}
}

// buildActionSummary partitions resolved actions into completed and failed
// groups, each entry rendered as "type: JSON(data)".
func buildActionSummary(pendingActions []model.PendingAction) string {
	var completed, failed []string
	for _, a := range pendingActions {
		line := fmt.Sprintf("%s: %s", a.Type, marshalData(a.Data))
		switch a.Status {
		case model.StatusCompleted:
			completed = append(completed, line)
		case model.StatusFailed:
			failed = append(failed, line)
		}
	}
	if len(completed) == 0 && len(failed) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Action results:\n")
	if len(completed) > 0 {
		b.WriteString("Completed:\n")
		for _, line := range completed {
			b.WriteString("- " + line + "\n")
		}
	}
	if len(failed) > 0 {
		b.WriteString("Failed:\n")
		for _, line := range failed {
			b.WriteString("- " + line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func marshalData(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
