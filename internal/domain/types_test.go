package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	err := NewError(ErrorAuth, errors.New("token rejected"))
	if got := KindOf(err, ErrorNetwork); got != ErrorAuth {
		t.Fatalf("expected auth kind, got %s", got)
	}

	wrapped := fmt.Errorf("starting session: %w", err)
	if got := KindOf(wrapped, ErrorNetwork); got != ErrorAuth {
		t.Fatalf("expected auth kind through wrapping, got %s", got)
	}

	if got := KindOf(errors.New("plain"), ErrorDevice); got != ErrorDevice {
		t.Fatalf("expected fallback kind, got %s", got)
	}
	if got := KindOf(nil, ErrorTransport); got != ErrorTransport {
		t.Fatalf("expected fallback kind for nil, got %s", got)
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewError(ErrorNetwork, cause)
	if err.Error() != "connection refused" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected unwrap to reach the cause")
	}

	bare := NewError(ErrorDevice, nil)
	if bare.Error() != string(ErrorDevice) {
		t.Fatalf("unexpected message for bare error: %q", bare.Error())
	}
}
