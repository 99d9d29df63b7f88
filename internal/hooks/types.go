// Package hooks implements §4.F: priority-ordered, typed interception
// points around model calls, tool calls, errors, and telemetry.
package hooks

import "context"

// Phase identifies a lifecycle interception point, per the Hook data model
// in spec §3.
type Phase string

const (
	PhaseBeforeModel     Phase = "before_model"
	PhaseAfterModel      Phase = "after_model"
	PhaseBeforeTool      Phase = "before_tool"
	PhaseAfterTool       Phase = "after_tool"
	PhaseToolSelection   Phase = "tool_selection"
	PhaseErrorIntercept  Phase = "error_intercept"
	PhaseErrorTransform  Phase = "error_transform"
	PhaseErrorRecover    Phase = "error_recover"
	PhaseErrorLog        Phase = "error_log"
	PhaseTelemetryCollect Phase = "telemetry_collect"
	PhaseCustomLog       Phase = "custom_log"
	PhaseMetricsAgg      Phase = "metrics_agg"
	PhasePerfMon         Phase = "perf_mon"
)

// Data carries whatever payload is relevant to the current Phase (a
// ModelRequest/Response, a ToolCall/Result, an error, a TelemetryRecord).
// Hooks type-assert the field they expect and ignore the rest.
type Data struct {
	Phase       Phase
	RequirementID string
	TaskID      string
	AgentID     string

	Request  any // *radiumtypes.ModelRequest, mutable by BeforeModel hooks
	Response any // *radiumtypes.ModelResponse

	ToolCall   any // *radiumtypes.ToolCall
	ToolResult any // *radiumtypes.ToolResult

	Err error

	Telemetry any // *telemetry record, opaque to this package

	Extra map[string]any
}

// Result is what a Hook returns after processing one phase invocation.
type Result struct {
	// ShouldContinue false short-circuits the remaining chain for this
	// phase; results accumulated so far are preserved.
	ShouldContinue bool
	// Modified, if non-nil, replaces Data for the next hook in the chain.
	Modified *Data
	// Err records a hook-local failure. It is logged but, per §4.F, does
	// not abort the surrounding operation unless ShouldContinue is also
	// false.
	Err error
}

// Continue is the typical success result: keep running the chain with Data
// unmodified.
func Continue() Result { return Result{ShouldContinue: true} }

// Stop halts the chain without an error.
func Stop() Result { return Result{ShouldContinue: false} }

// StopWithError halts the chain and records err.
func StopWithError(err error) Result { return Result{ShouldContinue: false, Err: err} }

// WithModified returns a Continue result carrying replacement data.
func WithModified(d *Data) Result { return Result{ShouldContinue: true, Modified: d} }

// Func is the callable form of a Hook.
type Func func(ctx context.Context, data *Data) Result

// Hook is a named, prioritized interceptor. A single concrete
// implementation may register the same Func (or distinct Funcs sharing
// state) under several phases — e.g. an audit hook serving BeforeModel,
// AfterModel, BeforeTool, and AfterTool.
type Hook struct {
	Name     string
	Phase    Phase
	Priority int // higher runs first
	Run      Func
}
