package model

// ================ Config ================

type ConversationConfig struct {
	TTL           string `envconfig:"CONVERSATION_TTL" default:"15m"`
	HistoryWindow int    `envconfig:"CONVERSATION_HISTORY_WINDOW" default:"10"`
}

type RetrievalConfig struct {
	TopK int `envconfig:"RETRIEVAL_TOP_K" default:"3"`
}

type ExtractionModelConfig struct {
	Model       string  `envconfig:"EXTRACTION_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"EXTRACTION_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"EXTRACTION_TEMPERATURE" default:"0.1"`
}

type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.4"`
}

type EmbeddingModelConfig struct {
	Model string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
}

type ResponsePromptConfig struct {
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"Concierge"`
	BusinessName  string `envconfig:"PROMPT_BUSINESS_NAME" default:"Northwind"`
}

type PipelineConfig struct {
	Variant       string `envconfig:"PIPELINE_VARIANT" default:"conditional"`
	ActionTimeout string `envconfig:"PIPELINE_ACTION_TIMEOUT" default:"30s"`
}
