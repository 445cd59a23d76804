package http_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geotours/tourhub/internal/cache"
	"github.com/geotours/tourhub/internal/config"
	httpx "github.com/geotours/tourhub/internal/http"
	"github.com/geotours/tourhub/internal/mailer"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouteTable(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := httpx.NewRouter(log, nil, cache.NewMemory(time.Minute), mailer.NewLogMailer(log), config.Config{
		Env:       "dev",
		JWTSecret: "test-secret",
	})

	registered := map[string]bool{}

	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	want := []string{
		"POST /api/v1/users/signup",
		"POST /api/v1/users/login",
		"POST /api/v1/users/forgotPassword",
		"PATCH /api/v1/users/resetPassword/:token",
		"PATCH /api/v1/users/updatePassword",
		"PATCH /api/v1/users/updateMe",
		"PATCH /api/v1/users/deleteMe",
		"GET /api/v1/users",
		"POST /api/v1/users",
		"GET /api/v1/users/:id",
		"PATCH /api/v1/users/:id",
		"DELETE /api/v1/users/:id",
		"GET /api/v1/tours",
		"POST /api/v1/tours",
		"GET /api/v1/tours/:id",
		"PATCH /api/v1/tours/:id",
		"DELETE /api/v1/tours/:id",
		"GET /api/v1/tours/top-5-cheap",
		"GET /api/v1/tours/tour-stats",
		"GET /api/v1/tours/monthly-plan/:year",
		"GET /healthz",
		"GET /readyz",
		"GET /metrics",
	}

	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %q not registered", route)
		}
	}

	// deactivation is a PATCH, same as the other self-service routes
	if registered["DELETE /api/v1/users/deleteMe"] {
		t.Error("deleteMe must not be registered under DELETE")
	}
}
