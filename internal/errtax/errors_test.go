package errtax

import (
	"errors"
	"testing"
)

func TestRecoverability(t *testing.T) {
	cases := []struct {
		kind Kind
		want Recoverability
	}{
		{KindQuotaExceeded, RecoverLocally},
		{KindRequestError, RecoverLocally},
		{KindToolTimeout, RecoverLocally},
		{KindAuthFailed, SurfaceToOperator},
		{KindSerializationError, SurfaceToOperator},
		{KindPolicyDenied, SurfaceToOperator},
	}
	for _, c := range cases {
		if got := c.kind.Recoverability(); got != c.want {
			t.Errorf("%s.Recoverability() = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestQuotaExceededNeverRetriesSameModel(t *testing.T) {
	if KindQuotaExceeded.Retryable() {
		t.Fatal("QuotaExceeded must not be retryable on the same model")
	}
	if !KindQuotaExceeded.ShouldFailover() {
		t.Fatal("QuotaExceeded must trigger failover")
	}
}

func TestErrorUnwrapAndIs(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindRequestError, cause, "request failed")

	if !errors.Is(err, err) {
		t.Fatal("error should be equal to itself via errors.Is")
	}
	if errors.Unwrap(err) != cause {
		t.Fatalf("expected unwrap to return cause, got %v", errors.Unwrap(err))
	}

	other := RequestError("different message")
	if !errors.Is(err, other) {
		t.Fatal("errors of the same Kind should match via Is")
	}

	denied := PolicyDenied("r1", "blocked")
	if errors.Is(err, denied) {
		t.Fatal("errors of different Kind should not match")
	}
}

func TestAllModelsFailed(t *testing.T) {
	failures := []ModelFailure{
		{Provider: "anthropic", Model: "smart-a", Err: errors.New("429")},
		{Provider: "anthropic", Model: "smart-b", Err: errors.New("429")},
	}
	err := AllModelsFailed(failures)
	if err.Kind != KindAllModelsFailed {
		t.Fatalf("expected KindAllModelsFailed, got %s", err.Kind)
	}
	if len(err.Failures) != 2 {
		t.Fatalf("expected 2 failures recorded, got %d", len(err.Failures))
	}
}

func TestKindOfDefaultsToRequestError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindRequestError {
		t.Fatalf("expected default KindRequestError, got %s", got)
	}
	if got := KindOf(AuthFailed()); got != KindAuthFailed {
		t.Fatalf("expected KindAuthFailed, got %s", got)
	}
}
