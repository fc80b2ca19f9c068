package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/apperr"
	"github.com/teamboard-dev/teamboard/internal/models"
	"github.com/teamboard-dev/teamboard/internal/policy"
	"github.com/teamboard-dev/teamboard/internal/types"
)

type AuthenticatedUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

func (u AuthenticatedUser) Actor() policy.Actor {
	return policy.Actor{ID: u.ID, Role: u.Role}
}

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware requires a valid bearer token. With allowQuery the token may
// also come from the token query parameter, for websocket clients that cannot
// set headers.
func AuthMiddleware(authenticator Authenticator, allowQuery bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, msg := bearerToken(ctx, allowQuery)
		if tokenString == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		user, err := authenticator.Authenticate(ctx.Request.Context(), tokenString)
		if err != nil {
			ctx.AbortWithStatusJSON(apperr.Status(err), gin.H{"error": apperr.Message(err)})
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		})
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context, allowQuery bool) (string, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		if allowQuery {
			if token := ctx.Query("token"); token != "" {
				return token, ""
			}
		}
		return "", "Not authorized, no token"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", "Authorization header format must be Bearer {token}"
	}
	return strings.TrimSpace(parts[1]), ""
}
