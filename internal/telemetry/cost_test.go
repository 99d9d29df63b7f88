package telemetry

import "testing"

func TestMockEngineIsFree(t *testing.T) {
	table := DefaultRateTable()
	cost := table.Estimate("mock", "mock", Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000})
	if cost != 0 {
		t.Fatalf("expected mock engine to cost 0, got %f", cost)
	}
}

func TestUnknownEngineFallsBackToDefaultRate(t *testing.T) {
	table := DefaultRateTable()
	cost := table.Estimate("unknown-engine", "unknown-model", Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000})
	want := fallbackInputPerMillion + fallbackOutputPerMillion
	if cost != want {
		t.Fatalf("expected fallback rate $%.2f, got $%.2f", want, cost)
	}
}

func TestCalculateCostIsIdempotent(t *testing.T) {
	table := DefaultRateTable()
	r := &Record{EngineID: "anthropic", Model: "claude-opus-4", Usage: Usage{InputTokens: 1000, OutputTokens: 1000}}
	first := r.CalculateCost(table)
	r.Usage.InputTokens = 999999999 // mutate after first computation
	second := r.CalculateCost(table)
	if first != second {
		t.Fatalf("expected CalculateCost to be idempotent once computed: %f vs %f", first, second)
	}
}

func TestDeriveAPIKeyIDIs16HexChars(t *testing.T) {
	id := DeriveAPIKeyID("sk-ant-some-secret-key")
	if len(id) != 16 {
		t.Fatalf("expected 16 hex chars, got %d: %q", len(id), id)
	}
}

func TestDeriveAPIKeyIDEmptyIsEmpty(t *testing.T) {
	if DeriveAPIKeyID("") != "" {
		t.Fatalf("expected empty api key to derive empty id")
	}
}
