package middlewares

import (
	"github.com/geotours/tourhub/internal/apperr"
	"github.com/geotours/tourhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRoles gates a route to a fixed set of roles. It composes after
// RequireAuth, which put the acting user on the context.
func RequireRoles(permitted ...user.Role) gin.HandlerFunc {
	allowed := make(map[user.Role]struct{}, len(permitted))

	for _, role := range permitted {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		u, ok := CurrentUser(c)

		if !ok {
			abortWith(c, apperr.Unauthorized("not_logged_in", "You are not logged in. Please log in to get access."))
			return
		}

		if _, ok := allowed[u.Role]; !ok {
			abortWith(c, apperr.Forbidden("forbidden", "You do not have permission to perform this action."))
			return
		}

		c.Next()
	}
}
