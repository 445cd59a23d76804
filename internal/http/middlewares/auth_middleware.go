package middlewares

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geotours/tourhub/internal/apperr"
	"github.com/geotours/tourhub/internal/auth"
	"github.com/geotours/tourhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (subjectID string, issuedAt time.Time, err error)
}

type IdentityLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users IdentityLoader
}

func NewAuthMiddleware(jwt TokenVerifier, users IdentityLoader) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// RequireAuth walks a request from bearer extraction through token
// verification, identity load and password-freshness check, then stashes the
// acting user on the context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWith(c, apperr.Unauthorized("not_logged_in", "You are not logged in. Please log in to get access."))
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))

		if raw == "" {
			abortWith(c, apperr.Unauthorized("not_logged_in", "You are not logged in. Please log in to get access."))
			return
		}

		subjectID, issuedAt, err := m.jwt.Verify(raw)

		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				abortWith(c, apperr.Unauthorized("token_expired", "Token expired, please log in again."))
				return
			}

			abortWith(c, apperr.Unauthorized("invalid_token", "Invalid token, please log in again."))
			return
		}

		u, err := m.users.GetByID(c.Request.Context(), subjectID)

		if err != nil {
			abortWith(c, apperr.Unauthorized("user_gone", "The user belonging to this token no longer exists."))
			return
		}

		if u.PasswordChangedAfter(issuedAt) {
			abortWith(c, apperr.Unauthorized("stale_token", "Password was changed after this token was issued. Please log in again."))
			return
		}

		c.Set(ctxUserKey, u)

		c.Next()
	}
}

// CurrentUser pulls the authenticated identity off the context so handlers
// don't need to know the magic key.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)

	if !ok {
		return user.User{}, false
	}

	u, ok := v.(user.User)

	return u, ok
}

func abortWith(c *gin.Context, err *apperr.Error) {
	c.AbortWithStatusJSON(err.Status, gin.H{
		"status":  apperr.StatusWord(err.Status),
		"message": err.Message,
	})
}
