package main

import (
	"fmt"

	"github.com/radiumhq/radium/internal/errtax"
)

// cliError wraps a command failure with the user-visible hint spec §7
// asks for ("the CLI prints a one-line cause and a suggestion where
// applicable").
type cliError struct {
	cause error
	hint  string
}

func (e *cliError) Error() string { return e.cause.Error() }
func (e *cliError) Unwrap() error { return e.cause }

func withHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &cliError{cause: err, hint: hint}
}

// renderCLIError formats err as the one-line-cause-plus-suggestion the
// CLI contract in spec §7 describes.
func renderCLIError(err error) string {
	var hint string
	cause := err
	if ce, ok := err.(*cliError); ok {
		cause, hint = ce.cause, ce.hint
	}
	if hint == "" {
		hint = hintFor(cause)
	}
	if hint != "" {
		return fmt.Sprintf("error: %s (%s)", cause, hint)
	}
	return fmt.Sprintf("error: %s", cause)
}

func hintFor(err error) string {
	taxErr, ok := errtax.Of(err)
	if !ok {
		return ""
	}
	if taxErr.Hint != "" {
		return taxErr.Hint
	}
	switch taxErr.Kind {
	case errtax.KindAuthFailed:
		return fmt.Sprintf("use 'radiumd auth login %s'", taxErr.Provider)
	case errtax.KindPolicyDenied:
		return "inspect the tool policy with 'radiumd tools policy'"
	case errtax.KindSandboxNotAvailable:
		return "set security.sandbox.kind = \"direct\" or install the requested runtime"
	case errtax.KindQuotaExceeded, errtax.KindAllModelsFailed:
		return "check provider quota or widen routing.fallback_chain"
	default:
		return ""
	}
}

// exitCodeFor maps an error to the process exit code spec §6 defines:
// 0 success, 1 generic error, 2 validation/policy failure (sensitive
// data or a disallowed tool), 3-9 reserved.
func exitCodeFor(err error) int {
	taxErr, ok := errtax.Of(err)
	if !ok {
		return 1
	}
	switch taxErr.Kind {
	case errtax.KindPolicyDenied, errtax.KindSerializationError:
		return 2
	default:
		return 1
	}
}
