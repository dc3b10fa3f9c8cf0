// Package validation wraps go-playground/validator with the POS field rules
// and converts failures into apperror field errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sangkips/pos-api/pkg/apperror"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	taxIDPattern    = regexp.MustCompile(`^[A-Z0-9]{10,15}$`)
	phonePattern    = regexp.MustCompile(`^[0-9\-\(\)\/\+\s]*$`)
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("taxid", func(fl validator.FieldLevel) bool {
			return taxIDPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct validates s by its `validate` tags. It returns a ValidationError
// listing every failed field, or nil.
func Struct(s interface{}) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewBadRequestError("Invalid input")
	}
	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return apperror.NewValidationError(fields)
}

// Var validates a single value against tag, reporting failures under field.
func Var(field string, value interface{}, tag string) error {
	err := get().Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperror.NewInvalidValue(field, message(verrs[0]))
	}
	return apperror.NewInvalidValue(field, "Invalid value")
}

// IsEmail reports whether s is a syntactically valid address.
func IsEmail(s string) bool {
	return get().Var(s, "email") == nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "eqfield":
		return "Does not match " + fe.Param()
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "username":
		return "Must be 3-20 letters, digits or underscores"
	case "taxid":
		return "Must be 10-15 uppercase letters or digits"
	case "phone":
		return "Invalid phone number"
	case "uuid":
		return "Must be a valid id"
	}
	return "Invalid value"
}
