package provideradapter

import (
	"net/http"
	"strings"

	"github.com/radiumhq/radium/internal/errtax"
)

// ClassifyHTTPStatus maps a backend HTTP status code to the error taxonomy,
// per spec §4.A: "HTTP 429 / quota -> QuotaExceeded; bad key -> AuthFailed;
// 4xx with schema errors -> SerializationError; everything else ->
// RequestError or ModelResponseError."
func ClassifyHTTPStatus(provider string, status int, body string) *errtax.Error {
	switch {
	case status == http.StatusTooManyRequests:
		return errtax.QuotaExceeded(provider, body)
	case status == http.StatusPaymentRequired:
		return errtax.QuotaExceeded(provider, body)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errtax.AuthFailed().WithProvider(provider, "")
	case status == http.StatusBadRequest && looksLikeSchemaError(body):
		return errtax.SerializationError(body).WithProvider(provider, "")
	case status >= 400 && status < 500:
		return errtax.RequestError(body).WithProvider(provider, "")
	default:
		return errtax.ModelResponseError(body).WithProvider(provider, "")
	}
}

func looksLikeSchemaError(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "schema") || strings.Contains(lower, "invalid_request") ||
		strings.Contains(lower, "json")
}

// errAuthMissing builds the taxonomy error raised when a provider is
// constructed without credentials.
func errAuthMissing(provider string) *errtax.Error {
	return errtax.AuthFailed().WithProvider(provider, "").WithHint("set the provider API key in config or environment")
}

// ClassifyErr maps a raw Go error (network failures, context deadlines) to
// the taxonomy when no HTTP status is available.
func ClassifyErr(provider string, err error) *errtax.Error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "deadline exceeded") || strings.Contains(lower, "timeout"):
		return errtax.RequestError(msg).WithProvider(provider, "")
	case strings.Contains(lower, "context canceled"):
		return errtax.Cancelled().WithProvider(provider, "")
	default:
		return errtax.RequestError(msg).WithProvider(provider, "")
	}
}
