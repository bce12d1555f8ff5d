package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeTransport, http.StatusBadGateway},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestErrorIs_MatchesByCode(t *testing.T) {
	err := NotFoundf("planet %q not found", "Earth")
	if !Is(err, ErrNotFound) {
		t.Error("expected NotFoundf error to match ErrNotFound")
	}
	if Is(err, ErrConflict) {
		t.Error("NotFound error must not match ErrConflict")
	}
}

func TestErrorIs_ThroughWrapping(t *testing.T) {
	inner := Conflict("planet already exists")
	wrapped := fmt.Errorf("create planet: %w", inner)

	if !Is(wrapped, ErrConflict) {
		t.Error("expected wrapped error to match ErrConflict")
	}
}

func TestWithCause_Unwraps(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := ErrUnavailable.WithCause(cause)

	if !Is(err, ErrUnavailable) {
		t.Error("expected error to keep its code after WithCause")
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable via Unwrap")
	}
	if err.Error() != "storage unavailable: connection refused" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestWithDetails(t *testing.T) {
	details := map[string]string{"name": "is required"}
	err := ValidationWithDetails("validation failed", details)

	if err.Code != CodeValidation {
		t.Errorf("got code %s, want %s", err.Code, CodeValidation)
	}
	if err.Details == nil {
		t.Error("expected details to be set")
	}
}

func TestTransportf(t *testing.T) {
	err := Transportf("fetch planets: status %d", 502)
	if err.HTTPStatus() != http.StatusBadGateway {
		t.Errorf("got status %d, want %d", err.HTTPStatus(), http.StatusBadGateway)
	}
	if err.Message != "fetch planets: status 502" {
		t.Errorf("unexpected message: %q", err.Message)
	}
}
