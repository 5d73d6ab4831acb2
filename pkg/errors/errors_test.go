package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "booking not found"},
			expected: "NOT_FOUND: booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"not available", NotAvailable("no departure on that date"), CodeNotAvailable, http.StatusBadRequest},
		{"insufficient capacity", InsufficientCapacity(3, 1), CodeInsufficientCapacity, http.StatusConflict},
		{"forbidden", Forbidden("not yours"), CodeForbidden, http.StatusForbidden},
		{"invalid transition", InvalidTransition("completed", "cancelled"), CodeInvalidTransition, http.StatusUnprocessableEntity},
		{"already cancelled", AlreadyCancelled(), CodeAlreadyCancelled, http.StatusConflict},
		{"payment required", PaymentRequired("payment not received"), CodePaymentRequired, http.StatusPaymentRequired},
		{"duplicate review", DuplicateReview(), CodeDuplicateReview, http.StatusConflict},
		{"review not allowed", ReviewNotAllowed("booking not completed"), CodeReviewNotAllowed, http.StatusForbidden},
		{"conflict", Conflict("try again"), CodeConflict, http.StatusConflict},
		{"validation", Validation("bad body", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("missing token"), CodeUnauthorized, http.StatusUnauthorized},
		{"timeout", Timeout("too slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Payments"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	seen := make(map[string]string)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.status)
			}
		})
		if prev, ok := seen[tt.code]; ok {
			t.Errorf("code %s used by both %q and %q", tt.code, prev, tt.name)
		}
		seen[tt.code] = tt.name
	}
}

func TestInsufficientCapacity_Details(t *testing.T) {
	err := InsufficientCapacity(3, 1)
	if err.Details["requested"] != 3 || err.Details["available"] != 1 {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	if !errors.Is(appErr, originalErr) {
		t.Errorf("errors.Is should find the original error")
	}
}

func TestAppError_StatusCodeDefaultsToInternal(t *testing.T) {
	err := &AppError{Code: CodeInternal, Message: "no status"}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want %d", err.StatusCode(), http.StatusInternalServerError)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Tour")
	wrapped := fmt.Errorf("loading tour: %w", appErr)
	regularErr := errors.New("regular error")

	if got := AsAppError(wrapped); got != appErr {
		t.Errorf("AsAppError() should unwrap to the original AppError")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should keep the original error")
	}

	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through wrapping")
	}
	if IsAppError(regularErr) {
		t.Errorf("IsAppError() should return false for regular error")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("cancel: %w", AlreadyCancelled())
	if !HasCode(err, CodeAlreadyCancelled) {
		t.Errorf("HasCode() should match wrapped code")
	}
	if HasCode(err, CodeNotFound) {
		t.Errorf("HasCode() should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Errorf("HasCode() should be false for non AppError")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	jsonStr := string(NotFoundWithID("Booking", "12345").ToJSON())

	for _, want := range []string{"NOT_FOUND", "Booking not found", "12345"} {
		if !strings.Contains(jsonStr, want) {
			t.Errorf("ToJSON() = %s, missing %q", jsonStr, want)
		}
	}
}
