package utils

import (
	"errors"
	"testing"
)

var errSentinel = errors.New("sentinel")

func TestAppErrorUnwrap(t *testing.T) {
	err := Errorf("op", errSentinel, "value %d", 3)
	if !errors.Is(err, errSentinel) {
		t.Fatalf("expected errors.Is to match sentinel")
	}
	if got := err.Error(); got != "op: sentinel: value 3" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAppErrorWithoutCause(t *testing.T) {
	err := NewAppError("op", "failed", nil)
	if got := err.Error(); got != "op: failed" {
		t.Fatalf("unexpected message %q", got)
	}
}
