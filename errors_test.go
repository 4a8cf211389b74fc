package twine

import (
	"errors"
	"testing"
)

func TestStatusOf(t *testing.T) {
	if StatusOf(nil) != OK {
		t.Fatal("StatusOf(nil) != OK")
	}
	if StatusOf(ErrInvalidCPU) != InvalidArguments {
		t.Fatalf("StatusOf(ErrInvalidCPU) = %v, want InvalidArguments", StatusOf(ErrInvalidCPU))
	}
	if StatusOf(errors.New("plain")) != Error {
		t.Fatal("StatusOf(plain error) != Error")
	}
}

func TestPoolErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := errWorker(3, Error, inner)

	if !errors.Is(wrapped, inner) {
		t.Fatal("errors.Is did not see through errWorker's wrapped error")
	}
	if wrapped.Error() == "" {
		t.Fatal("Error() returned empty string")
	}
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		OK:                "OK",
		LimitExceeded:     "LIMIT_EXCEEDED",
		PermissionDenied:  "PERMISSION_DENIED",
		InvalidArguments:  "INVALID_ARGUMENTS",
		Error:             "ERROR",
		Status(999):       "UNKNOWN",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}
