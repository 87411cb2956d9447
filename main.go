package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/convopilot-core/server/internal/agent/actions"
	"github.com/convopilot-core/server/internal/agent/graph"
	"github.com/convopilot-core/server/internal/agent/graph/conversations"
	"github.com/convopilot-core/server/internal/agent/model"
	"github.com/convopilot-core/server/internal/agent/providers"
	"github.com/convopilot-core/server/internal/agent/rag"
	"github.com/convopilot-core/server/internal/agent/registry"
	"github.com/convopilot-core/server/internal/agent/repo"
	"github.com/convopilot-core/server/internal/core"
	logx "github.com/convopilot-core/server/pkg/logger"
	pkgredis "github.com/convopilot-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the agent example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Environment core.Environment `envconfig:"APP_ENV" default:"development"`
	Redis       pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Extraction   model.ExtractionModelConfig
	Response     model.ResponseModelConfig
	Embedding    model.EmbeddingModelConfig
	Retrieval    model.RetrievalConfig
	Prompt       model.ResponsePromptConfig
	Conversation model.ConversationConfig
	Pipeline     model.PipelineConfig
	Cost         model.CostConfig
}

var seedChunks = []struct {
	content  string
	metadata map[string]string
}{
	{
		content:  "Opening hours: Monday through Friday 09:00-18:00, Saturday 10:00-14:00, closed on Sundays and public holidays.",
		metadata: map[string]string{"topic": "hours"},
	},
	{
		content:  "Appointments can be rescheduled free of charge up to 24 hours before the booked slot. Later changes incur a small fee.",
		metadata: map[string]string{"topic": "booking"},
	},
	{
		content:  "Reminders are delivered via push notification by default; email and SMS delivery can be requested per reminder.",
		metadata: map[string]string{"topic": "reminders"},
	},
	{
		content:  "Support requests outside business hours are queued and answered the next working day.",
		metadata: map[string]string{"topic": "support"},
	},
}

func main() {
	fmt.Println("Testing conversation pipeline...")
	ctx := context.Background()
	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: envCfg.Environment})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	fmt.Println("Connected to Redis successfully")

	// ====================================================
	// Shared Gemini client: chat models and embeddings
	client, err := providers.NewGenAIClient(ctx, envCfg.APIKey, envCfg.BaseURL)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}

	embedder := rag.NewGeminiEmbedder(client, envCfg.Embedding.Model)
	semanticStore := rag.NewRedisSemanticStore(rdb, embedder)
	for _, chunk := range seedChunks {
		if err := semanticStore.IndexChunk(ctx, chunk.content, chunk.metadata); err != nil {
			log.Printf("Warning: failed to seed chunk: %v", err)
		}
	}

	actionStore := repo.NewRedisActionStore(rdb)

	schemaRegistry := registry.NewDefault()
	handlers := actions.NewHandlerRegistry()
	handlers.Register(registry.ActionBookAppointment, actions.NewBookingHandler())
	handlers.Register(registry.ActionCreateNote, actions.NewNotesHandler())
	handlers.Register(registry.ActionSetReminder, actions.NewRemindersHandler())
	handlers.Register(registry.ActionSearchKnowledge, actions.NewKnowledgeHandler(semanticStore))

	runner, err := graph.BuildConversationPipeline(ctx, graph.Config{
		APIKey:          envCfg.APIKey,
		BaseURL:         envCfg.BaseURL,
		Client:          client,
		ExtractionModel: envCfg.Extraction,
		ResponseModel:   envCfg.Response,
		Retrieval:       envCfg.Retrieval,
		Prompt:          envCfg.Prompt,
		Conversation:    envCfg.Conversation,
		Pipeline:        envCfg.Pipeline,
		Cost:            envCfg.Cost,
		SemanticStore:   semanticStore,
		ActionStore:     actionStore,
		Handlers:        handlers,
		Registry:        schemaRegistry,
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}
	manager := conversations.NewManager(repo.NewRedisConversationStore(rdb, ttl), envCfg.Conversation)

	testQueries := []struct {
		description string
		query       string
	}{
		{
			description: "Knowledge question answered from retrieved context",
			query:       "What are your opening hours on Saturday?",
		},
		{
			description: "Booking request extracted and executed",
			query:       "Book a meeting with Alex on 2025-03-01 at 14:00",
		},
		{
			description: "Reminder request",
			query:       "Remind me to send the contract tomorrow at 09:00",
		},
		{
			description: "Follow-up with thanks",
			query:       "Thanks, that's all for now!",
		},
	}

	conversationID := "test-conversation-123451"

	for i, test := range testQueries {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Printf("Query: \"%s\"\n", test.query)
		fmt.Println("Processing...")

		state, err := manager.LoadOrCreate(ctx, conversationID)
		if err != nil {
			log.Fatalf("Failed to load conversation for test %d: %v", i+1, err)
		}
		state.Messages = append(state.Messages, model.NewHumanMessage(test.query))

		state, err = runner.Run(ctx, state)
		if err != nil {
			log.Fatalf("Failed to run pipeline for test %d: %v", i+1, err)
		}
		if err := manager.Save(ctx, state); err != nil {
			log.Fatalf("Failed to save conversation for test %d: %v", i+1, err)
		}

		reply := ""
		if n := len(state.Messages); n > 0 {
			reply = state.Messages[n-1].Content
		}
		fmt.Printf("Response %d: %s\n", i+1, reply)
		fmt.Println("─────────────────────────────────────────────────")

		// add slight delay between tests for readability
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("All pipeline tests completed successfully!")
}
