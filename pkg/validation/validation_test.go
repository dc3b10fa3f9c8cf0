package validation

import (
	"errors"
	"testing"

	"github.com/sangkips/pos-api/pkg/apperror"
)

type signup struct {
	Username             string  `json:"username" validate:"required,username"`
	Email                string  `json:"email" validate:"required,email"`
	Password             string  `json:"password" validate:"required,min=8"`
	PasswordConfirmation string  `json:"password_confirmation" validate:"eqfield=Password"`
	TaxID                *string `json:"tax_id" validate:"omitempty,taxid"`
	Phone                string  `json:"phone" validate:"omitempty,phone"`
}

func TestStructCollectsFieldErrors(t *testing.T) {
	bad := "abc"
	err := Struct(signup{
		Username:             "a!",
		Email:                "nope",
		Password:             "short",
		PasswordConfirmation: "other",
		TaxID:                &bad,
		Phone:                "call me",
	})
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Kind != apperror.KindValidation {
		t.Fatalf("expected validation kind, got %s", appErr.Kind)
	}
	want := map[string]bool{"username": true, "email": true, "password": true, "password_confirmation": true, "tax_id": true, "phone": true}
	for _, fe := range appErr.Errors {
		delete(want, fe.Field)
	}
	if len(want) != 0 {
		t.Fatalf("expected errors for every field, missing %v", want)
	}
}

func TestStructAcceptsValidInput(t *testing.T) {
	tax := "ABC1234567"
	err := Struct(signup{
		Username:             "shop_owner",
		Email:                "owner@shop.io",
		Password:             "password123",
		PasswordConfirmation: "password123",
		TaxID:                &tax,
		Phone:                "+1 (555) 010-9999",
	})
	if err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestVarAndIsEmail(t *testing.T) {
	if !IsEmail("a@b.co") || IsEmail("a@") {
		t.Fatalf("expected email check to distinguish addresses")
	}
	err := Var("email", "bad", "email")
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
