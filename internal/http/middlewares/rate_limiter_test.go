package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geotours/tourhub/internal/domain/user"
	"github.com/geotours/tourhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRateLimiterByIP(t *testing.T) {
	rl := middlewares.NewRateLimiter(2, time.Minute)

	r := gin.New()
	r.GET("/x", rl.RateLimiterMiddleware(middlewares.KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	fire := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:4000"

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		return w
	}

	for i := 0; i < 2; i++ {
		if w := fire(); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, w.Code)
		}
	}

	w := fire()

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429, body=%s", w.Code, w.Body.String())
	}

	if w.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

// Authenticated routes budget per user, so one user exhausting their quota
// must not lock out another behind the same address.
func TestRateLimiterByUser(t *testing.T) {
	rl := middlewares.NewRateLimiter(2, time.Minute)

	limited := rl.RateLimiterMiddleware(middlewares.KeyByUserOrIP)

	mountFor := func(id primitive.ObjectID) *gin.Engine {
		mw := middlewares.NewAuthMiddleware(
			&fakeVerifier{
				verifyFn: func(string) (string, time.Time, error) {
					return id.Hex(), time.Now().UTC(), nil
				},
			},
			&fakeLoader{
				getFn: func(ctx context.Context, got string) (user.User, error) {
					return user.User{ID: id, Role: user.RoleUser}, nil
				},
			},
		)

		r := gin.New()
		r.GET("/x", mw.RequireAuth(), limited, func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		return r
	}

	fire := func(r *gin.Engine) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		req.Header.Set("Authorization", "Bearer ok")

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		return w.Code
	}

	first := mountFor(primitive.NewObjectID())

	for i := 0; i < 2; i++ {
		if code := fire(first); code != http.StatusOK {
			t.Fatalf("first user request %d status = %d, want 200", i+1, code)
		}
	}

	if code := fire(first); code != http.StatusTooManyRequests {
		t.Fatalf("first user third request status = %d, want 429", code)
	}

	// a different user behind the same IP gets their own bucket
	second := mountFor(primitive.NewObjectID())

	if code := fire(second); code != http.StatusOK {
		t.Fatalf("second user status = %d, want 200", code)
	}
}
