// Package errtax defines the error taxonomy shared across the execution
// core: providers, router, policy gate, sandbox, and scheduler all classify
// failures into this vocabulary so that retry, failover, and surfacing
// decisions stay consistent.
package errtax

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure in the execution core.
type Kind string

const (
	KindRequestError             Kind = "request_error"
	KindModelResponseError       Kind = "model_response_error"
	KindSerializationError       Kind = "serialization_error"
	KindUnsupportedModelProvider Kind = "unsupported_model_provider"
	KindQuotaExceeded            Kind = "quota_exceeded"
	KindAuthFailed               Kind = "auth_failed"
	KindPolicyDenied             Kind = "policy_denied"
	KindSandboxNotAvailable      Kind = "sandbox_not_available"
	KindToolTimeout              Kind = "tool_timeout"
	KindCancelled                Kind = "cancelled"
	KindAllModelsFailed          Kind = "all_models_failed"
)

// Recoverability classifies how a Kind should be handled by callers, per
// the propagation policy in spec §7.
type Recoverability int

const (
	// RecoverLocally means the router/executor should retry via fallback.
	RecoverLocally Recoverability = iota
	// SurfaceToOperator means the task fails and dependents are blocked.
	SurfaceToOperator
	// FatalToProcess means the error should abort startup/the process.
	FatalToProcess
)

// Recoverability returns how callers should treat errors of this kind.
func (k Kind) Recoverability() Recoverability {
	switch k {
	case KindQuotaExceeded, KindRequestError, KindToolTimeout:
		return RecoverLocally
	case KindAuthFailed, KindSerializationError, KindPolicyDenied,
		KindUnsupportedModelProvider, KindAllModelsFailed, KindModelResponseError,
		KindSandboxNotAvailable, KindCancelled:
		return SurfaceToOperator
	default:
		return SurfaceToOperator
	}
}

// Retryable reports whether the same model/provider should be retried.
// QuotaExceeded must never retry the same model (spec §4.O); it fails over
// immediately instead.
func (k Kind) Retryable() bool {
	switch k {
	case KindRequestError, KindToolTimeout:
		return true
	default:
		return false
	}
}

// ShouldFailover reports whether a different model/provider should be tried.
func (k Kind) ShouldFailover() bool {
	switch k {
	case KindQuotaExceeded, KindAuthFailed, KindModelResponseError, KindRequestError:
		return true
	default:
		return false
	}
}

// Error is the concrete error type carried through the execution core. It
// wraps an underlying cause (if any) and exposes structured fields used by
// hooks, telemetry, and the CLI's user-visible rendering.
type Error struct {
	Kind    Kind
	Message string
	Hint    string

	// Provider-specific context, set by provider adapters.
	Provider string
	Model    string

	// Cause is the underlying error, if this wraps one.
	Cause error

	// Failures accumulates per-model attempts for AllModelsFailed.
	Failures []ModelFailure
}

// ModelFailure records one failed attempt against a specific model, used to
// populate AllModelsFailed{failures}.
type ModelFailure struct {
	Provider string
	Model    string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s (provider=%s model=%s)", e.Kind, msg, e.Provider, e.Model)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a new Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Cause: cause, Message: message}
}

// WithProvider attaches provider/model context and returns the receiver for
// chaining.
func (e *Error) WithProvider(provider, model string) *Error {
	e.Provider = provider
	e.Model = model
	return e
}

// WithHint attaches an operator-facing suggestion.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// As-compatible constructors for the named kinds in spec §4.O.

func RequestError(msg string) *Error       { return New(KindRequestError, msg) }
func ModelResponseError(msg string) *Error { return New(KindModelResponseError, msg) }
func SerializationError(msg string) *Error { return New(KindSerializationError, msg) }
func UnsupportedModelProvider(name string) *Error {
	return New(KindUnsupportedModelProvider, fmt.Sprintf("unsupported model provider: %s", name))
}
func AuthFailed() *Error          { return New(KindAuthFailed, "authentication failed") }
func SandboxNotAvailable() *Error { return New(KindSandboxNotAvailable, "sandbox runtime not available") }
func ToolTimeout(tool string) *Error {
	return New(KindToolTimeout, fmt.Sprintf("tool %q timed out", tool))
}
func Cancelled() *Error { return New(KindCancelled, "operation cancelled") }

// QuotaExceeded builds a QuotaExceeded{provider, message} error.
func QuotaExceeded(provider, message string) *Error {
	e := New(KindQuotaExceeded, message)
	e.Provider = provider
	return e
}

// PolicyDenied builds a PolicyDenied{rule, reason} error.
func PolicyDenied(rule, reason string) *Error {
	msg := reason
	if rule != "" {
		msg = fmt.Sprintf("%s (rule=%s)", reason, rule)
	}
	return New(KindPolicyDenied, msg)
}

// AllModelsFailed builds an AllModelsFailed{failures} error.
func AllModelsFailed(failures []ModelFailure) *Error {
	e := New(KindAllModelsFailed, fmt.Sprintf("all %d candidate models failed", len(failures)))
	e.Failures = failures
	return e
}

// Is supports errors.Is comparison by Kind: errors.Is(err, errtax.KindAuthFailed.Sentinel()).
func (k Kind) Sentinel() error { return &Error{Kind: k} }

func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

// Of extracts the taxonomy Error from an error chain, if present.
func Of(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf classifies an arbitrary error, defaulting to RequestError when the
// chain carries no taxonomy Error.
func KindOf(err error) Kind {
	if e, ok := Of(err); ok {
		return e.Kind
	}
	return KindRequestError
}
