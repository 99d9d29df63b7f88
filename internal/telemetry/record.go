package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Usage mirrors the teacher's usage.Usage shape (input/output/cache
// tokens), extended with the cache-creation/cache-read split spec §4.L
// asks for.
type Usage struct {
	InputTokens         int64
	OutputTokens        int64
	CachedTokens        int64
	CacheCreationTokens int64
	CacheReadTokens     int64
}

// Total returns the sum of every token bucket.
func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens + u.CachedTokens + u.CacheCreationTokens + u.CacheReadTokens
}

// Attribution identifies who/what a telemetry record is billed to, per
// spec §4.L: "derive api_key_id from the first 16 bytes of
// sha256(api_key) rendered as 16 hex chars".
type Attribution struct {
	APIKeyID   string
	Team       string
	Project    string
	CostCenter string
}

// DeriveAPIKeyID computes the attribution api_key_id for apiKey.
func DeriveAPIKeyID(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:8]) // 8 bytes -> 16 hex chars
}

// Record is one TelemetryRecord per spec §3: a single model or tool call's
// usage, cost, and attribution.
type Record struct {
	AgentID      string
	Timestamp    time.Time
	Usage        Usage
	Model        string
	Provider     string
	EngineID     string
	Attribution  Attribution
	ToolName     string
	ToolArgs     string
	ToolApproved *bool
	ToolApproval string

	// estimatedCost is populated only by CalculateCost, never set
	// directly, per spec §4.L: "Cost is computed on
	// TelemetryRecord::calculate_cost() not before so that the record
	// remains a pure data object."
	estimatedCost float64
	costComputed  bool
}

// CalculateCost applies rates to r's usage and caches the result on the
// record. Calling it more than once is idempotent.
func (r *Record) CalculateCost(table RateTable) float64 {
	if r.costComputed {
		return r.estimatedCost
	}
	r.estimatedCost = table.Estimate(r.EngineID, r.Model, r.Usage)
	r.costComputed = true
	return r.estimatedCost
}

// EstimatedCost returns the last computed cost, or 0 if CalculateCost has
// not been called.
func (r *Record) EstimatedCost() float64 { return r.estimatedCost }

// AgentRecord is one row of the agents table (spec §4.L schema).
type AgentRecord struct {
	ID       string
	ParentID string
	PlanID   string
	Type     string
	Status   string
	PID      int
	Start    time.Time
	End      *time.Time
	ExitCode *int
	Err      string
	LogPath  string
}
