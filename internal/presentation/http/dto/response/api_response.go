package response

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pagination"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Meta    *Meta             `json:"meta,omitempty"`
}

// Meta contains metadata about the response
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

// RequestID returns the id assigned by the logger middleware, falling back
// to the client header or a fresh uuid.
func RequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

func newMeta(c *gin.Context) *Meta {
	return &Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: RequestID(c),
	}
}

// Success sends a success response
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// List sends a page of results as {total, pages, current_page, per_page, <noun>: [...]}
func List[T any](c *gin.Context, message, noun string, result *pagination.PaginatedResult[T]) {
	Success(c, http.StatusOK, message, result.Envelope(noun))
}

// Error sends an error response. Unexpected errors are logged with the
// request id and replaced by a generic message.
func Error(c *gin.Context, err error) {
	appErr := apperror.GetAppError(err)
	if appErr.Kind == apperror.KindUnexpected {
		log.Printf("[%s] %s %s: %v", RequestID(c), c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(appErr.Code, APIResponse{
		Success: false,
		Message: appErr.Message,
		Code:    appErr.Reason,
		Errors:  fieldErrors(appErr.Errors),
		Meta:    newMeta(c),
	})
}

func fieldErrors(errs []apperror.FieldError) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

// ErrorWithCode sends an error response with a specific status code
func ErrorWithCode(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, APIResponse{
		Success: false,
		Message: message,
		Meta:    newMeta(c),
	})
}

// Created sends a 201 Created response
func Created(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusCreated, message, data)
}

// OK sends a 200 OK response
func OK(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusOK, message, data)
}

// PDF streams a generated document inline.
func PDF(c *gin.Context, filename string, doc []byte) {
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(c *gin.Context) {
	ErrorWithCode(c, http.StatusUnauthorized, "Unauthorized")
}

// BadRequest sends a 400 Bad Request response
func BadRequest(c *gin.Context, message string) {
	Error(c, apperror.NewBadRequestError(message))
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context) {
	ErrorWithCode(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}
