package telemetry

// Rate is a per-million-token price table for one (engine, model) pair,
// mirroring the teacher's usage.Cost shape.
type Rate struct {
	InputPerMillion  float64
	OutputPerMillion float64
	CachePerMillion  float64
}

// RateTable maps "engine:model" to a Rate. The mock engine costs zero;
// an unknown engine falls back to $1/M input + $2/M output, per spec
// §4.L.
type RateTable map[string]Rate

// DefaultRateTable seeds rates for the provider variants this repo ships.
func DefaultRateTable() RateTable {
	return RateTable{
		"anthropic:claude-opus-4":   {InputPerMillion: 15, OutputPerMillion: 75, CachePerMillion: 1.5},
		"anthropic:claude-sonnet-4": {InputPerMillion: 3, OutputPerMillion: 15, CachePerMillion: 0.3},
		"openai:gpt-4o":             {InputPerMillion: 2.5, OutputPerMillion: 10},
		"openai:gpt-4o-mini":        {InputPerMillion: 0.15, OutputPerMillion: 0.6},
		"gemini:gemini-1.5-pro":     {InputPerMillion: 1.25, OutputPerMillion: 5},
		"mock:mock":                 {},
	}
}

const (
	fallbackInputPerMillion  = 1.0
	fallbackOutputPerMillion = 2.0
)

// Estimate computes the dollar cost for usage under (engine, model). The
// mock engine is always free; an engine/model pair absent from the table
// falls back to the default $1/M input + $2/M output rate.
func (t RateTable) Estimate(engine, model string, usage Usage) float64 {
	if engine == "mock" {
		return 0
	}
	rate, ok := t[engine+":"+model]
	if !ok {
		rate = Rate{InputPerMillion: fallbackInputPerMillion, OutputPerMillion: fallbackOutputPerMillion}
	}
	cost := float64(usage.InputTokens)*rate.InputPerMillion/1_000_000 +
		float64(usage.OutputTokens)*rate.OutputPerMillion/1_000_000 +
		float64(usage.CachedTokens+usage.CacheReadTokens)*rate.CachePerMillion/1_000_000
	return cost
}
