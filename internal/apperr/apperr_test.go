package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{Internal, http.StatusInternalServerError},
		{Validation, http.StatusBadRequest},
		{Unauthenticated, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{Upstream, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("kind=%d", tt.kind), func(t *testing.T) {
			if got := tt.kind.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	t.Run("apperr.Error", func(t *testing.T) {
		code, status, message := Status(NotFoundf("store %s not found", "abc"))
		if code != "not_found" {
			t.Errorf("code = %q, want not_found", code)
		}
		if status != http.StatusNotFound {
			t.Errorf("status = %d, want %d", status, http.StatusNotFound)
		}
		if message != "store abc not found" {
			t.Errorf("message = %q, want %q", message, "store abc not found")
		}
	})

	t.Run("plain error defaults to internal", func(t *testing.T) {
		code, status, message := Status(errors.New("boom"))
		if code != "internal" {
			t.Errorf("code = %q, want internal", code)
		}
		if status != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", status, http.StatusInternalServerError)
		}
		if message == "boom" {
			t.Error("message should not leak the raw internal error")
		}
	})
}

func TestWrap_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := Wrap(Upstream, "calling onsite server", cause)

	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if wrapped.Error() != "calling onsite server: connection reset" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestAs(t *testing.T) {
	t.Run("finds *Error in chain", func(t *testing.T) {
		err := fmt.Errorf("context: %w", Conflictf("bootstrap token already used"))
		e, ok := As(err)
		if !ok {
			t.Fatal("expected As to find the *Error")
		}
		if e.Kind != Conflict {
			t.Errorf("Kind = %v, want Conflict", e.Kind)
		}
	})

	t.Run("plain error is not found", func(t *testing.T) {
		if _, ok := As(errors.New("plain")); ok {
			t.Error("expected As to return false for a plain error")
		}
	})
}
