package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestComputeCost(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000, TotalTokens: 1_500_000}
	p := ResolvePricing("gemini-2.5-flash")

	in, out, total := ComputeCost(usage, p)
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 1.25, out, 1e-9)
	assert.InDelta(t, 1.55, total, 1e-9)
}

func TestComputeCostToleratesMissingUsage(t *testing.T) {
	in, out, total := ComputeCost(nil, ResolvePricing("gemini-2.5-flash"))
	assert.Zero(t, in)
	assert.Zero(t, out)
	assert.Zero(t, total)
}

func TestResolvePricingCoversConfiguredModels(t *testing.T) {
	for _, name := range []string{"gemini-2.5-flash", "gemini-2.5-flash-lite", "gemini-embedding-001"} {
		p := ResolvePricing(name)
		assert.Positive(t, p.InputPerM, name)
	}

	embed := ResolvePricing("gemini-embedding-001")
	assert.Zero(t, embed.OutputPerM, "embedding models bill input tokens only")

	unknown := ResolvePricing("some-future-model")
	assert.Zero(t, unknown.InputPerM)
	assert.Zero(t, unknown.OutputPerM)
}
