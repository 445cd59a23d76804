package middlewares

import (
	"net/http"
	"strings"

	"github.com/geotours/tourhub/internal/apperr"
	"github.com/gin-gonic/gin"
)

func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			// bodiless writes (deleteMe) have nothing to mis-parse
			if c.Request.ContentLength == 0 {
				break
			}

			ct := c.GetHeader("Content-Type")
			// allow "application/json; charset=utf-8"
			if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				abortWith(c, apperr.New(http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json"))
				return
			}
		}
		c.Next()
	}
}
