package providers

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/convopilot-core/server/internal/agent/graph/parsers"
	"github.com/convopilot-core/server/internal/agent/model"
	logx "github.com/convopilot-core/server/pkg/logger"
)

// Config holds the configuration for chat model creation. When Client is
// set it is reused; otherwise one is constructed from APIKey/BaseURL.
type Config struct {
	APIKey     string
	BaseURL    string
	Client     *genai.Client
	Extraction model.ExtractionModelConfig
	Response   model.ResponseModelConfig
	Cost       model.CostConfig
}

// NewGenAIClient constructs the shared Gemini API client.
func NewGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// ChatModels holds the function-calling and response chat model adapters plus
// the shared genai client (reused for embeddings).
type ChatModels struct {
	Selector  model.ToolSelector
	Responder model.Responder
	Client    *genai.Client
}

// NewChatModels creates the genai client and both gemini chat models, wrapped
// behind the pipeline's provider contracts.
func NewChatModels(ctx context.Context, config Config) (*ChatModels, error) {
	client := config.Client
	if client == nil {
		var err error
		client, err = NewGenAIClient(ctx, config.APIKey, config.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	extractionModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Extraction.Model,
		Temperature: &config.Extraction.Temperature,
		MaxTokens:   &config.Extraction.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating extraction model")
		return nil, fmt.Errorf("error creating extraction model: %w", err)
	}

	responseModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Response.Model,
		Temperature: &config.Response.Temperature,
		MaxTokens:   &config.Response.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating response model")
		return nil, fmt.Errorf("error creating response model: %w", err)
	}

	return &ChatModels{
		Selector:  &geminiToolSelector{chatModel: extractionModel, modelName: config.Extraction.Model, cost: config.Cost},
		Responder: &geminiResponder{chatModel: responseModel, modelName: config.Response.Model, cost: config.Cost},
		Client:    client,
	}, nil
}

// geminiResponder adapts a gemini chat model to the Responder contract.
type geminiResponder struct {
	chatModel *gemini.ChatModel
	modelName string
	cost      model.CostConfig
}

func (r *geminiResponder) Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	out, err := r.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, err
	}
	logUsageCost(r.cost, r.modelName, out)
	return out, nil
}

// geminiToolSelector adapts a gemini chat model to the ToolSelector contract.
// Tools are passed per call so callers can narrow the offered set.
type geminiToolSelector struct {
	chatModel *gemini.ChatModel
	modelName string
	cost      model.CostConfig
}

func (s *geminiToolSelector) SelectTool(ctx context.Context, input string, tools []*schema.ToolInfo) (*model.ToolSelection, error) {
	out, err := s.chatModel.Generate(ctx,
		[]*schema.Message{schema.UserMessage(input)},
		einomodel.WithTools(tools),
	)
	if err != nil {
		return nil, err
	}
	logUsageCost(s.cost, s.modelName, out)

	return parsers.SelectedTool(out), nil
}

// logUsageCost computes and logs USD cost for a model invocation when cost
// logging is enabled and usage metadata is present.
func logUsageCost(cfg model.CostConfig, modelName string, out *schema.Message) {
	if !cfg.LogUsage || out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
	logx.Debug().
		Str("model", modelName).
		Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
		Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
		Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

var (
	_ model.Responder    = (*geminiResponder)(nil)
	_ model.ToolSelector = (*geminiToolSelector)(nil)
)
