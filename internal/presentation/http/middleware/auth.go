package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/pos-api/pkg/utils"
)

const actorKey = "actor"

// AuthMiddleware creates a JWT authentication middleware. The claims become
// the request's actor.Context.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return authenticate(jwtManager, false)
}

// WebSocketAuthMiddleware also accepts the token in the "token" query
// parameter, since browsers cannot set headers on a websocket upgrade.
func WebSocketAuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return authenticate(jwtManager, true)
}

func authenticate(jwtManager *utils.JWTManager, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" && allowQuery {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			response.Unauthorized(c)
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			response.Unauthorized(c)
			return
		}

		a := actor.New(
			claims.UserID,
			claims.BusinessID,
			claims.BranchID,
			enum.Role(claims.Role),
			enum.CapabilitySetFromStrings(claims.Capabilities),
		)
		a.Username = claims.Username
		c.Set(actorKey, a)

		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// GetActor returns the authenticated caller set by AuthMiddleware
func GetActor(c *gin.Context) (actor.Context, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return actor.Context{}, false
	}
	a, ok := v.(actor.Context)
	return a, ok
}

// RequireCapability rejects callers holding none of caps
func RequireCapability(caps ...enum.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := GetActor(c)
		if !ok {
			response.Unauthorized(c)
			return
		}
		if err := a.RequireAny(caps...); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}
