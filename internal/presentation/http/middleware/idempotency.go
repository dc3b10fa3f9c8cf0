package middleware

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/pos-api/pkg/apperror"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
)

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored 2xx response for a repeated
// Idempotency-Key from the same user. Requests without a key pass through.
// Runs after AuthMiddleware.
//
// The key is claimed with a pending row before the handler runs, so of two
// concurrent requests with one key only the first reaches the handler.
func Idempotency(repo repository.IdempotencyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		a, ok := GetActor(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		now := time.Now()
		endpoint := c.Request.Method + " " + c.Request.URL.Path

		existing, err := repo.GetByKey(ctx, key, a.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		if existing != nil {
			if !existing.IsExpired(now) {
				replay(c, existing, endpoint)
				return
			}
			if err := repo.DeleteExpired(ctx, now); err != nil {
				log.Printf("[%s] idempotency cleanup failed: %v", shortID(response.RequestID(c)), err)
			}
		}

		claim := &entity.IdempotencyKey{
			Key:        key,
			UserID:     a.UserID,
			BusinessID: a.BusinessID,
			Endpoint:   endpoint,
			ExpiresAt:  now.Add(IdempotencyKeyTTL),
		}
		if err := repo.Create(ctx, claim); err != nil {
			if !errors.Is(err, database.ErrDuplicate) {
				response.Error(c, err)
				return
			}
			// lost the race to a concurrent request with the same key
			winner, err := repo.GetByKey(ctx, key, a.UserID)
			if err != nil {
				response.Error(c, err)
				return
			}
			if winner == nil {
				response.Error(c, apperror.ErrIdempotencyInFlight)
				return
			}
			replay(c, winner, endpoint)
			return
		}

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		completed := false
		defer func() {
			if completed {
				return
			}
			// a failed or panicking request frees the key for a retry
			if err := repo.Release(context.WithoutCancel(ctx), claim.ID); err != nil {
				log.Printf("[%s] releasing idempotency key failed: %v", shortID(response.RequestID(c)), err)
			}
		}()

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		if err := repo.Complete(context.WithoutCancel(ctx), claim.ID, status, blw.body.String()); err != nil {
			log.Printf("[%s] storing idempotency response failed: %v", shortID(response.RequestID(c)), err)
			return
		}
		completed = true
	}
}

// replay answers with the stored response, or a conflict when the key is
// still in flight or belongs to another endpoint.
func replay(c *gin.Context, stored *entity.IdempotencyKey, endpoint string) {
	if stored.Endpoint != endpoint {
		response.Error(c, apperror.ErrIdempotencyReused)
		return
	}
	if stored.IsPending() {
		response.Error(c, apperror.ErrIdempotencyInFlight)
		return
	}
	c.Header("X-Idempotency-Replayed", "true")
	c.Data(stored.ResponseCode, "application/json; charset=utf-8", []byte(stored.ResponseBody))
	c.Abort()
}

// RequireIdempotencyKey rejects requests that carry no Idempotency-Key
func RequireIdempotencyKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(IdempotencyKeyHeader) == "" {
			response.Error(c, apperror.NewInvalidValue(IdempotencyKeyHeader, IdempotencyKeyHeader+" header is required"))
			return
		}
		c.Next()
	}
}
