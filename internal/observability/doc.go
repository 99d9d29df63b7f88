// Package observability provides structured logging, Prometheus metrics,
// and OpenTelemetry tracing for the engine's model calls, tool and
// sandbox executions, and scheduler task outcomes.
//
// # Overview
//
// Three pillars, kept independently usable:
//
//  1. Metrics - Prometheus counters/histograms/gauges (see Metrics)
//  2. Logging - slog-based structured logs with secret redaction (see Logger)
//  3. Tracing - OpenTelemetry spans over OTLP (see Tracer)
//
// # Example
//
//	metrics := observability.NewMetrics()
//	logger := observability.NewLogger(observability.LogConfig{Format: "json"})
//	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
//	    ServiceName: "radiumd",
//	    Endpoint:    os.Getenv("OTEL_ENDPOINT"),
//	})
//	defer shutdown(context.Background())
//
//	ctx = observability.AddRequestID(ctx, requirementID)
//	ctx = observability.AddEngine(ctx, "anthropic")
//
//	ctx, span := tracer.TraceLLMRequest(ctx, "anthropic", "claude-opus-4-6")
//	defer span.End()
//	start := time.Now()
//	resp, err := provider.Generate(ctx, req)
//	metrics.RecordLLMRequest("anthropic", "claude-opus-4-6", status(err), time.Since(start).Seconds(),
//	    resp.Usage.InputTokens, resp.Usage.OutputTokens)
//	logger.Info(ctx, "model call complete", "finish_reason", resp.FinishReason)
//
// # Redaction
//
// Logger redacts API keys, bearer tokens, and passwords/secrets from both
// free-text messages and structured fields before they reach the
// configured writer — see DefaultRedactPatterns.
package observability
