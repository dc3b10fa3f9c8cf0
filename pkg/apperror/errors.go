package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError independently of its HTTP status.
type Kind string

const (
	KindValidation        Kind = "ValidationError"
	KindNotFound          Kind = "NotFoundError"
	KindPermissionDenied  Kind = "PermissionDenied"
	KindStateConflict     Kind = "StateConflict"
	KindInsufficientStock Kind = "InsufficientStock"
	KindUnauthenticated   Kind = "Unauthenticated"
	KindUnexpected        Kind = "UnexpectedError"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"-"`
	Kind    Kind         `json:"kind"`
	Reason  string       `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches two AppErrors by reason so sentinel values work with errors.Is
// even when the message was customised.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Reason != "" && e.Reason == t.Reason
}

// Common errors
var (
	ErrUnauthorized        = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthenticated, Reason: "Unauthorized", Message: "Unauthorized"}
	ErrInvalidToken        = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthenticated, Reason: "InvalidToken", Message: "Invalid token"}
	ErrTokenExpired        = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthenticated, Reason: "TokenExpired", Message: "Token has expired"}
	ErrInvalidCredentials  = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthenticated, Reason: "InvalidCredentials", Message: "Invalid username or password"}
	ErrBusinessInactive    = &AppError{Code: http.StatusForbidden, Kind: KindPermissionDenied, Reason: "BusinessInactive", Message: "Business account is inactive"}
	ErrSubscriptionExpired = &AppError{Code: http.StatusForbidden, Kind: KindPermissionDenied, Reason: "SubscriptionExpired", Message: "Business subscription has expired"}
	ErrForbidden           = &AppError{Code: http.StatusForbidden, Kind: KindPermissionDenied, Reason: "PermissionDenied", Message: "You do not have permission to perform this action"}
	ErrBranchAccessDenied  = &AppError{Code: http.StatusForbidden, Kind: KindPermissionDenied, Reason: "PermissionDenied", Message: "You do not have access to this branch"}
	ErrInternalServer      = &AppError{Code: http.StatusInternalServerError, Kind: KindUnexpected, Reason: "UnexpectedError", Message: "Internal server error"}

	ErrEmptyCart          = &AppError{Code: http.StatusBadRequest, Kind: KindValidation, Reason: "EmptyCart", Message: "Sale must contain at least one item"}
	ErrProductNotFound    = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Reason: "ProductNotFound", Message: "Invalid product"}
	ErrAlreadyCancelled   = &AppError{Code: http.StatusBadRequest, Kind: KindStateConflict, Reason: "AlreadyCancelled", Message: "Sale is already cancelled"}
	ErrSessionAlreadyOpen = &AppError{Code: http.StatusBadRequest, Kind: KindStateConflict, Reason: "SessionAlreadyOpen", Message: "There is already an open register session for this branch"}
	ErrSessionNotOpen     = &AppError{Code: http.StatusBadRequest, Kind: KindStateConflict, Reason: "SessionNotOpen", Message: "Register session is not open"}
	ErrOpenSessionsExist  = &AppError{Code: http.StatusBadRequest, Kind: KindStateConflict, Reason: "OpenSessionsExist", Message: "Cannot deactivate branch with open register sessions"}
	ErrCategoryNotEmpty   = &AppError{Code: http.StatusBadRequest, Kind: KindStateConflict, Reason: "CategoryNotEmpty", Message: "Cannot delete category with associated products or subcategories"}
	ErrCategoryCycle      = &AppError{Code: http.StatusBadRequest, Kind: KindStateConflict, Reason: "CategoryCycle", Message: "Cannot move category to one of its descendants"}
	ErrLastAdmin          = &AppError{Code: http.StatusBadRequest, Kind: KindStateConflict, Reason: "LastAdmin", Message: "Cannot deactivate the last active administrator"}
	ErrIdempotencyInFlight = &AppError{Code: http.StatusConflict, Kind: KindStateConflict, Reason: "IdempotencyKeyInUse", Message: "A request with this Idempotency-Key is still being processed"}
	ErrIdempotencyReused   = &AppError{Code: http.StatusConflict, Kind: KindStateConflict, Reason: "IdempotencyKeyReused", Message: "This Idempotency-Key was already used for a different request"}
	ErrInsufficientStock  = &AppError{Code: http.StatusBadRequest, Kind: KindInsufficientStock, Reason: "InsufficientStock", Message: "Insufficient stock"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Reason:  "ValidationError",
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewInvalidValue reports a single field holding an unacceptable value.
func NewInvalidValue(field, message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Reason:  "InvalidValue",
		Message: message,
		Errors:  []FieldError{{Field: field, Message: message}},
	}
}

// NewInvalidAmount reports a negative or otherwise unusable cash amount.
func NewInvalidAmount(field string) *AppError {
	msg := "Amount must be zero or greater"
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Reason:  "InvalidAmount",
		Message: msg,
		Errors:  []FieldError{{Field: field, Message: msg}},
	}
}

// NewInvalidComboComponent reports a malformed combo component list.
// NewSessionNotOpen is ErrSessionNotOpen with a situation-specific message.
func NewSessionNotOpen(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindStateConflict,
		Reason:  "SessionNotOpen",
		Message: message,
	}
}

func NewInvalidComboComponent(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Reason:  "InvalidComboComponent",
		Message: message,
		Errors:  []FieldError{{Field: "components", Message: message}},
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Reason:  "NotFound",
		Message: resource + " not found",
	}
}

// NewConflictError creates a state conflict error for the given reason.
func NewConflictError(reason, message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindStateConflict,
		Reason:  reason,
		Message: message,
	}
}

// NewDuplicateName reports a name already used within the business.
func NewDuplicateName(message string) *AppError {
	return NewConflictError("DuplicateName", message)
}

// NewDuplicateEmail reports an email already used within its uniqueness scope.
func NewDuplicateEmail(message string) *AppError {
	return NewConflictError("DuplicateEmail", message)
}

// NewLimitReached reports a subscription plan limit.
func NewLimitReached(feature string) *AppError {
	return NewConflictError("LimitReached", feature+" limit reached for current subscription")
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Reason:  "BadRequest",
		Message: message,
	}
}

// NewPermissionDenied reports a missing capability.
func NewPermissionDenied(capability string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Kind:    KindPermissionDenied,
		Reason:  "PermissionDenied",
		Message: fmt.Sprintf("Permission denied: %s required", capability),
	}
}

// NewInsufficientStock names the product that cannot cover the request.
func NewInsufficientStock(productName string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindInsufficientStock,
		Reason:  "InsufficientStock",
		Message: "Insufficient stock for product: " + productName,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible. Anything else becomes
// a generic unexpected error so internal detail never reaches a client.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer
}

// KindOf returns the kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return GetAppError(err).Kind
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusForbidden:
		return KindPermissionDenied
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindStateConflict
	}
	return KindUnexpected
}
