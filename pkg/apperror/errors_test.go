package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByReason(t *testing.T) {
	err := NewInsufficientStock("Coffee beans")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected errors.Is to match InsufficientStock sentinel")
	}
	if errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected InsufficientStock not to match EmptyCart")
	}

	wrapped := fmt.Errorf("create sale: %w", ErrSessionAlreadyOpen)
	if !errors.Is(wrapped, ErrSessionAlreadyOpen) {
		t.Fatalf("expected wrapped sentinel to match")
	}
}

func TestGetAppErrorHidesForeignErrors(t *testing.T) {
	appErr := GetAppError(errors.New("pq: connection refused on 10.0.0.3"))
	if appErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", appErr.Code)
	}
	if appErr.Message != "Internal server error" {
		t.Fatalf("expected generic message, got %q", appErr.Message)
	}
	if appErr.Kind != KindUnexpected {
		t.Fatalf("expected unexpected kind, got %s", appErr.Kind)
	}
}

func TestConstructorsCarryKind(t *testing.T) {
	cases := []struct {
		err  *AppError
		kind Kind
		code int
	}{
		{NewValidationError([]FieldError{{Field: "name", Message: "required"}}), KindValidation, http.StatusBadRequest},
		{NewNotFoundError("Branch"), KindNotFound, http.StatusNotFound},
		{NewDuplicateName("Branch name already exists"), KindStateConflict, http.StatusBadRequest},
		{NewPermissionDenied("manage_sales"), KindPermissionDenied, http.StatusForbidden},
		{NewInvalidAmount("initial_cash"), KindValidation, http.StatusBadRequest},
		{NewAppError(http.StatusConflict, "taken"), KindStateConflict, http.StatusConflict},
	}
	for _, tc := range cases {
		if tc.err.Kind != tc.kind {
			t.Fatalf("%s: expected kind %s, got %s", tc.err.Message, tc.kind, tc.err.Kind)
		}
		if tc.err.Code != tc.code {
			t.Fatalf("%s: expected status %d, got %d", tc.err.Message, tc.code, tc.err.Code)
		}
	}
	if KindOf(nil) != "" {
		t.Fatalf("expected empty kind for nil error")
	}
}
