package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"google.golang.org/genai"

	"github.com/convopilot-core/server/internal/agent/actions"
	"github.com/convopilot-core/server/internal/agent/graph/observers"
	"github.com/convopilot-core/server/internal/agent/graph/stages"
	"github.com/convopilot-core/server/internal/agent/model"
	"github.com/convopilot-core/server/internal/agent/providers"
	"github.com/convopilot-core/server/internal/agent/registry"
	logx "github.com/convopilot-core/server/pkg/logger"
)

// Variant names a pipeline shape.
type Variant string

const (
	// VariantMinimal runs generation only.
	VariantMinimal Variant = "minimal"
	// VariantRAG runs retrieval then generation.
	VariantRAG Variant = "rag"
	// VariantLinear runs every stage in fixed order.
	VariantLinear Variant = "linear"
	// VariantConditional branches into action execution only when extraction
	// produced pending actions. Production default.
	VariantConditional Variant = "conditional"
)

// ParseVariant normalises a configured variant name, defaulting to
// conditional for unknown values.
func ParseVariant(v string) Variant {
	switch Variant(v) {
	case VariantMinimal, VariantRAG, VariantLinear, VariantConditional:
		return Variant(v)
	default:
		return VariantConditional
	}
}

// Runner is the single entry point callers get: one pipeline invocation over
// one conversation state. Callers never reach individual stages.
type Runner interface {
	Run(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error)
}

// Config composes the full pipeline end-to-end from provider credentials and
// stores. This is a convenience layer over GraphConfig that also constructs
// the chat model adapters.
type Config struct {
	APIKey  string
	BaseURL string
	Client  *genai.Client

	ExtractionModel model.ExtractionModelConfig
	ResponseModel   model.ResponseModelConfig
	Retrieval       model.RetrievalConfig
	Prompt          model.ResponsePromptConfig
	Conversation    model.ConversationConfig
	Pipeline        model.PipelineConfig
	Cost            model.CostConfig

	SemanticStore model.SemanticStore
	ActionStore   model.ActionStore
	Handlers      *actions.HandlerRegistry
	Registry      *registry.Registry
}

// GraphConfig holds the fully-injected dependencies needed to build a graph.
// There is no hidden static state: everything the stages touch arrives here.
type GraphConfig struct {
	Responder     model.Responder
	Selector      model.ToolSelector
	SemanticStore model.SemanticStore
	ActionStore   model.ActionStore
	Handlers      *actions.HandlerRegistry
	Registry      *registry.Registry

	Retrieval       model.RetrievalConfig
	RetrievalFilter map[string]string
	Prompt          model.ResponsePromptConfig
	Extraction      stages.ExtractionOptions
	HistoryWindow   int
	ActionTimeout   time.Duration
}

// GraphBuilder handles the construction of the conversation pipeline graph.
type GraphBuilder struct {
	config  *GraphConfig
	variant Variant
	graph   *compose.Graph[*model.ConversationState, *model.ConversationState]
}

// pipelineRunner wraps the compiled graph with the single failure-isolation
// boundary: any error or panic escaping a stage becomes one fallback reply.
type pipelineRunner struct {
	runnable compose.Runnable[*model.ConversationState, *model.ConversationState]
}

func (r *pipelineRunner) Run(ctx context.Context, state *model.ConversationState) (out *model.ConversationState, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logx.Error().Str("conversation_id", state.ConversationID).
				Interface("panic", rec).Msg("Pipeline panicked - fallback reply")
			out, err = fallbackState(state), nil
		}
	}()

	out, invokeErr := r.runnable.Invoke(ctx, state, compose.WithCallbacks(observers.NewAllCallbacks()))
	if invokeErr != nil {
		logx.Error().Err(invokeErr).Str("conversation_id", state.ConversationID).
			Msg("Pipeline stage threw - fallback reply")
		return fallbackState(state), nil
	}
	if out == nil {
		return fallbackState(state), nil
	}
	return out, nil
}

// fallbackState appends a single apologetic reply to the state that existed
// before the failure. The user always gets a conversational answer.
func fallbackState(state *model.ConversationState) *model.ConversationState {
	next := state.Clone()
	next.Messages = append(next.Messages, model.NewAIMessage(stages.FallbackMessage))
	return next
}

// BuildConversationPipeline composes chat models, builds the configured
// variant, and returns a Runner. When graph construction fails it degrades to
// the two-stage retrieval+generate runner; only a provider client that cannot
// be constructed at all propagates as an error.
func BuildConversationPipeline(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ActionStore == nil || cfg.SemanticStore == nil {
		return nil, fmt.Errorf("stores are not properly initialized")
	}
	if cfg.Handlers == nil || cfg.Registry == nil {
		return nil, fmt.Errorf("handler or schema registry is nil")
	}

	cms, err := providers.NewChatModels(ctx, providers.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Client:     cfg.Client,
		Extraction: cfg.ExtractionModel,
		Response:   cfg.ResponseModel,
		Cost:       cfg.Cost,
	})
	if err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(cfg.Pipeline.ActionTimeout)
	if err != nil {
		timeout = stages.DefaultActionTimeout
	}

	graphCfg := &GraphConfig{
		Responder:     cms.Responder,
		Selector:      cms.Selector,
		SemanticStore: cfg.SemanticStore,
		ActionStore:   cfg.ActionStore,
		Handlers:      cfg.Handlers,
		Registry:      cfg.Registry,
		Retrieval:     cfg.Retrieval,
		Prompt:        cfg.Prompt,
		HistoryWindow: cfg.Conversation.HistoryWindow,
		ActionTimeout: timeout,
	}

	runner, err := BuildPipeline(ctx, graphCfg, ParseVariant(cfg.Pipeline.Variant))
	if err != nil {
		logx.Error().Err(err).Msg("Graph construction failed - degrading to two-stage pipeline")
		return NewDegradedRunner(graphCfg), nil
	}

	logx.Debug().Str("variant", cfg.Pipeline.Variant).Msg("Conversation pipeline built successfully")
	return runner, nil
}

// BuildPipeline constructs and compiles the named graph variant.
func BuildPipeline(ctx context.Context, config *GraphConfig, variant Variant) (Runner, error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Responder == nil {
		return nil, fmt.Errorf("responder model is not initialized")
	}
	if variant != VariantMinimal && config.SemanticStore == nil {
		return nil, fmt.Errorf("semantic store is nil")
	}
	if variant == VariantLinear || variant == VariantConditional {
		if config.Selector == nil || config.Registry == nil {
			return nil, fmt.Errorf("extraction model/registry is not initialized")
		}
		if config.Handlers == nil || config.ActionStore == nil {
			return nil, fmt.Errorf("action handlers/store are not initialized")
		}
	}

	builder := &GraphBuilder{
		config:  config,
		variant: variant,
		graph:   compose.NewGraph[*model.ConversationState, *model.ConversationState](),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}
	return &pipelineRunner{runnable: runnable}, nil
}

// addNodes adds the stage nodes the variant needs.
func (b *GraphBuilder) addNodes() {
	cfg := b.config

	if b.variant != VariantMinimal {
		b.graph.AddLambdaNode(stages.NodeRetrieval,
			stages.Lambda(stages.NewRetrieval(cfg.SemanticStore, cfg.Retrieval, cfg.RetrievalFilter)))
	}

	if b.variant == VariantLinear || b.variant == VariantConditional {
		b.graph.AddLambdaNode(stages.NodeExtractActions,
			stages.Lambda(stages.NewExtraction(cfg.Selector, cfg.Registry, cfg.ActionStore, cfg.Extraction)))
		b.graph.AddLambdaNode(stages.NodeExecuteActions,
			stages.Lambda(stages.NewExecution(cfg.Handlers, cfg.ActionStore, cfg.ActionTimeout)))
		b.graph.AddLambdaNode(stages.NodeGenerateWithSummary,
			stages.Lambda(stages.NewGeneration(cfg.Responder, cfg.Prompt, stages.GenerationOptions{
				HistoryWindow:     cfg.HistoryWindow,
				WithActionSummary: true,
			})))
	}

	if b.variant != VariantLinear {
		b.graph.AddLambdaNode(stages.NodeGenerate,
			stages.Lambda(stages.NewGeneration(cfg.Responder, cfg.Prompt, stages.GenerationOptions{
				HistoryWindow: cfg.HistoryWindow,
			})))
	}
}

// addEdges creates the fixed flow connections for the variant.
func (b *GraphBuilder) addEdges() {
	var edges [][2]string
	switch b.variant {
	case VariantMinimal:
		edges = [][2]string{
			{compose.START, stages.NodeGenerate},
			{stages.NodeGenerate, compose.END},
		}
	case VariantRAG:
		edges = [][2]string{
			{compose.START, stages.NodeRetrieval},
			{stages.NodeRetrieval, stages.NodeGenerate},
			{stages.NodeGenerate, compose.END},
		}
	case VariantLinear:
		edges = [][2]string{
			{compose.START, stages.NodeRetrieval},
			{stages.NodeRetrieval, stages.NodeExtractActions},
			{stages.NodeExtractActions, stages.NodeExecuteActions},
			{stages.NodeExecuteActions, stages.NodeGenerateWithSummary},
			{stages.NodeGenerateWithSummary, compose.END},
		}
	default: // conditional
		edges = [][2]string{
			{compose.START, stages.NodeRetrieval},
			{stages.NodeRetrieval, stages.NodeExtractActions},
			{stages.NodeExecuteActions, stages.NodeGenerateWithSummary},
			{stages.NodeGenerateWithSummary, compose.END},
			{stages.NodeGenerate, compose.END},
		}
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the conditional routing after extraction.
func (b *GraphBuilder) addBranches() error {
	if b.variant != VariantConditional {
		return nil
	}

	actionsBranch := compose.NewGraphBranch(
		NewActionsBranchCondition(),
		map[string]bool{
			stages.NodeExecuteActions: true,
			stages.NodeGenerate:       true,
		},
	)
	if err := b.graph.AddBranch(stages.NodeExtractActions, actionsBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding actions branch")
		return fmt.Errorf("error adding actions branch: %w", err)
	}
	return nil
}

// NewActionsBranchCondition routes to execution iff extraction left pending
// actions in state; otherwise generation runs directly.
func NewActionsBranchCondition() func(context.Context, *model.ConversationState) (string, error) {
	return func(ctx context.Context, state *model.ConversationState) (string, error) {
		if len(state.PendingOnly()) > 0 {
			logx.Debug().Str("conversation_id", state.ConversationID).
				Int("pending", len(state.PendingOnly())).Msg("Routing to ExecuteActions")
			return stages.NodeExecuteActions, nil
		}
		logx.Debug().Str("conversation_id", state.ConversationID).Msg("No pending actions - routing to Generate")
		return stages.NodeGenerate, nil
	}
}

// compile finalizes and compiles the graph.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.ConversationState, *model.ConversationState], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(20))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Str("variant", string(b.variant)).Msg("Graph compiled successfully")
	return runnable, nil
}

// degradedRunner is the setup-failure fallback: retrieval then generation as
// plain stage funcs, each guarded so a stage failure only skips that stage.
type degradedRunner struct {
	stages []stages.Func
}

// NewDegradedRunner builds the minimal two-stage pipeline used when graph
// construction fails.
func NewDegradedRunner(cfg *GraphConfig) Runner {
	var fns []stages.Func
	if cfg.SemanticStore != nil {
		fns = append(fns, stages.NewRetrieval(cfg.SemanticStore, cfg.Retrieval, cfg.RetrievalFilter))
	}
	fns = append(fns, stages.NewGeneration(cfg.Responder, cfg.Prompt, stages.GenerationOptions{
		HistoryWindow: cfg.HistoryWindow,
	}))
	return &degradedRunner{stages: fns}
}

func (r *degradedRunner) Run(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
	current := state
	for _, stage := range r.stages {
		next, err := runStageSafely(ctx, stage, current)
		if err != nil {
			logx.Error().Err(err).Str("conversation_id", state.ConversationID).
				Msg("Degraded pipeline stage failed - skipping stage")
			continue
		}
		current = next
	}
	// A reply is still owed even if generation itself was the stage that broke.
	if n := len(current.Messages); n == 0 || current.Messages[n-1].Role != model.RoleAI {
		current = fallbackState(current)
	}
	return current, nil
}

func runStageSafely(ctx context.Context, stage stages.Func, state *model.ConversationState) (out *model.ConversationState, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("stage panic: %v", rec)
		}
	}()
	return stage(ctx, state)
}
