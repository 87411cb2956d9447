package model

import (
	"github.com/cloudwego/eino/schema"
)

// CostConfig controls whether per-call USD cost is computed and logged by
// the provider adapters.
type CostConfig struct {
	LogUsage bool `envconfig:"COST_LOG_USAGE" default:"true"`
}

// Pricing is USD per one million tokens.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// modelPricing covers the models this service configures. Embedding models
// bill input tokens only. Unknown models resolve to zero pricing, so usage
// logging still reports token counts for them.
var modelPricing = map[string]Pricing{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
	"gemini-embedding-001":  {InputPerM: 0.15},
}

// ResolvePricing returns the pricing for a model, zero when unknown.
func ResolvePricing(model string) Pricing {
	return modelPricing[model]
}

// ComputeCost converts token usage to USD using per-1M pricing.
func ComputeCost(usage *schema.TokenUsage, p Pricing) (inputCost, outputCost, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	inputCost = p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	outputCost = p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	return inputCost, outputCost, inputCost + outputCost
}
