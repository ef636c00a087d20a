// Package pricing holds the static per-model rate table and the model-name
// normalization used to match log entries against it.
package pricing

import "strings"

// ModelPricing holds per-token dollar rates for one model.
type ModelPricing struct {
	Model             string
	InputPerTok       float64
	OutputPerTok      float64
	CacheReadPerTok   float64
	CacheCreatePerTok float64
}

// table maps normalized model base names to their rates. Unknown models are
// priced at zero downstream, so missing entries degrade gracefully.
var table = []ModelPricing{
	{
		Model:       "claude-haiku-4-5",
		InputPerTok: 1e-6, OutputPerTok: 5e-6,
		CacheReadPerTok: 1e-7, CacheCreatePerTok: 1.25e-6,
	},
	{
		Model:       "claude-sonnet-4-5",
		InputPerTok: 3e-6, OutputPerTok: 1.5e-5,
		CacheReadPerTok: 3e-7, CacheCreatePerTok: 3.75e-6,
	},
	{
		Model:       "claude-sonnet-4",
		InputPerTok: 3e-6, OutputPerTok: 1.5e-5,
		CacheReadPerTok: 3e-7, CacheCreatePerTok: 3.75e-6,
	},
	{
		Model:       "claude-opus-4-5",
		InputPerTok: 5e-6, OutputPerTok: 2.5e-5,
		CacheReadPerTok: 5e-7, CacheCreatePerTok: 6.25e-6,
	},
	{
		Model:       "claude-opus-4-6",
		InputPerTok: 5e-6, OutputPerTok: 2.5e-5,
		CacheReadPerTok: 5e-7, CacheCreatePerTok: 6.25e-6,
	},
	{
		Model:       "claude-opus-4",
		InputPerTok: 1.5e-5, OutputPerTok: 7.5e-5,
		CacheReadPerTok: 1.5e-6, CacheCreatePerTok: 1.875e-5,
	},
	{
		Model:       "gpt-5",
		InputPerTok: 1.25e-6, OutputPerTok: 1e-5,
		CacheReadPerTok: 1.25e-7,
	},
	{
		Model:       "gpt-5-codex",
		InputPerTok: 1.25e-6, OutputPerTok: 1e-5,
		CacheReadPerTok: 1.25e-7,
	},
	{
		Model:       "gpt-5.1",
		InputPerTok: 1.25e-6, OutputPerTok: 1e-5,
		CacheReadPerTok: 1.25e-7,
	},
	{
		Model:       "gpt-5.2",
		InputPerTok: 1.75e-6, OutputPerTok: 1.4e-5,
		CacheReadPerTok: 1.75e-7,
	},
	{
		Model:       "gpt-5.2-codex",
		InputPerTok: 1.75e-6, OutputPerTok: 1.4e-5,
		CacheReadPerTok: 1.75e-7,
	},
	{
		Model:       "gpt-5.3-codex",
		InputPerTok: 1.75e-6, OutputPerTok: 1.4e-5,
		CacheReadPerTok: 1.75e-7,
	},
}

// Normalize strips vendor decoration from a model identifier so it matches the
// rate table. Bedrock-style names carry an "anthropic." prefix plus version
// and date suffixes; Vertex names carry an "@" deployment suffix.
//
//	"anthropic.claude-haiku-4-5-20250514-v2:0" -> "claude-haiku-4-5"
//	"claude-opus-4-5@20251101"                 -> "claude-opus-4-5"
func Normalize(model string) string {
	name := strings.TrimPrefix(model, "anthropic.")

	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}

	// Version suffix like "-v2"
	if i := strings.LastIndex(name, "-v"); i >= 0 && isDigits(name[i+2:]) {
		name = name[:i]
	}

	// Date suffix like "-20250514"
	if len(name) > 9 {
		tail := name[len(name)-9:]
		if tail[0] == '-' && isDigits(tail[1:]) {
			name = name[:len(name)-9]
		}
	}

	return name
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Lookup returns the pricing for a model after normalization, or nil when the
// model is unknown. Unknown is not an error: callers price it at zero.
func Lookup(model string) *ModelPricing {
	normalized := Normalize(model)
	for i := range table {
		if table[i].Model == normalized {
			return &table[i]
		}
	}
	return nil
}

// CalculateCost prices each token class independently. No rounding is applied;
// the components are summed by the aggregator.
func CalculateCost(p *ModelPricing, input, output, cacheRead, cacheCreation int64) (inputCost, outputCost, cacheReadCost, cacheCreationCost float64) {
	inputCost = float64(input) * p.InputPerTok
	outputCost = float64(output) * p.OutputPerTok
	cacheReadCost = float64(cacheRead) * p.CacheReadPerTok
	cacheCreationCost = float64(cacheCreation) * p.CacheCreatePerTok
	return inputCost, outputCost, cacheReadCost, cacheCreationCost
}
