package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geotours/tourhub/internal/auth"
	"github.com/geotours/tourhub/internal/domain/user"
	"github.com/geotours/tourhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	verifyFn func(token string) (string, time.Time, error)
}

func (f *fakeVerifier) Verify(token string) (string, time.Time, error) {
	if f.verifyFn != nil {
		return f.verifyFn(token)
	}

	return "", time.Time{}, auth.ErrInvalidToken
}

type fakeLoader struct {
	getFn func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeLoader) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return user.User{}, errors.New("not wired")
}

// protectedRouter mounts RequireAuth in front of a probe handler that reports
// whether the acting user landed on the context.
func protectedRouter(mw *middlewares.AuthMiddleware, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	chain := append([]gin.HandlerFunc{mw.RequireAuth()}, extra...)

	chain = append(chain, func(c *gin.Context) {
		u, ok := middlewares.CurrentUser(c)

		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "no user on context"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": u.ID.Hex(), "role": u.Role})
	})

	r.GET("/protected", chain...)

	return r
}

func TestRequireAuth(t *testing.T) {
	now := time.Now().UTC()

	uid := primitive.NewObjectID()

	changedRecently := now.Add(-time.Minute)

	tests := []struct {
		name           string
		authHeader     string
		verifier       *fakeVerifier
		loader         *fakeLoader
		wantStatusCode int
		wantMessage    string
	}{
		{
			name:           "missing_header",
			authHeader:     "",
			verifier:       &fakeVerifier{},
			loader:         &fakeLoader{},
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "You are not logged in. Please log in to get access.",
		},
		{
			name:           "not_bearer",
			authHeader:     "Basic abc123",
			verifier:       &fakeVerifier{},
			loader:         &fakeLoader{},
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "You are not logged in. Please log in to get access.",
		},
		{
			name:       "expired_token",
			authHeader: "Bearer expired",
			verifier: &fakeVerifier{
				verifyFn: func(string) (string, time.Time, error) {
					return "", time.Time{}, auth.ErrTokenExpired
				},
			},
			loader:         &fakeLoader{},
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "Token expired, please log in again.",
		},
		{
			name:       "invalid_token",
			authHeader: "Bearer garbage",
			verifier: &fakeVerifier{
				verifyFn: func(string) (string, time.Time, error) {
					return "", time.Time{}, auth.ErrInvalidToken
				},
			},
			loader:         &fakeLoader{},
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "Invalid token, please log in again.",
		},
		{
			name:       "user_gone",
			authHeader: "Bearer ok",
			verifier: &fakeVerifier{
				verifyFn: func(string) (string, time.Time, error) {
					return uid.Hex(), now, nil
				},
			},
			loader: &fakeLoader{
				getFn: func(ctx context.Context, id string) (user.User, error) {
					return user.User{}, errors.New("no documents")
				},
			},
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "The user belonging to this token no longer exists.",
		},
		{
			name:       "stale_token_after_password_change",
			authHeader: "Bearer ok",
			verifier: &fakeVerifier{
				verifyFn: func(string) (string, time.Time, error) {
					// issued well before the password change below
					return uid.Hex(), now.Add(-time.Hour), nil
				},
			},
			loader: &fakeLoader{
				getFn: func(ctx context.Context, id string) (user.User, error) {
					return user.User{ID: uid, Role: user.RoleUser, PasswordChangedAt: &changedRecently}, nil
				},
			},
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "Password was changed after this token was issued. Please log in again.",
		},
		{
			name:       "success",
			authHeader: "Bearer ok",
			verifier: &fakeVerifier{
				verifyFn: func(string) (string, time.Time, error) {
					return uid.Hex(), now, nil
				},
			},
			loader: &fakeLoader{
				getFn: func(ctx context.Context, id string) (user.User, error) {
					if id != uid.Hex() {
						return user.User{}, errors.New("wrong id passed to loader")
					}

					return user.User{ID: uid, Role: user.RoleUser}, nil
				},
			},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			mw := middlewares.NewAuthMiddleware(tt.verifier, tt.loader)

			r := protectedRouter(mw)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)

			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantMessage != "" && !strings.Contains(w.Body.String(), tt.wantMessage) {
				t.Fatalf("body %q does not contain %q", w.Body.String(), tt.wantMessage)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	now := time.Now().UTC()

	uid := primitive.NewObjectID()

	makeMW := func(role user.Role) *middlewares.AuthMiddleware {
		return middlewares.NewAuthMiddleware(
			&fakeVerifier{
				verifyFn: func(string) (string, time.Time, error) {
					return uid.Hex(), now, nil
				},
			},
			&fakeLoader{
				getFn: func(ctx context.Context, id string) (user.User, error) {
					return user.User{ID: uid, Role: role}, nil
				},
			},
		)
	}

	tests := []struct {
		name           string
		role           user.Role
		wantStatusCode int
	}{
		{name: "admin_allowed", role: user.RoleAdmin, wantStatusCode: http.StatusOK},
		{name: "lead_guide_allowed", role: user.RoleLeadGuide, wantStatusCode: http.StatusOK},
		{name: "plain_user_forbidden", role: user.RoleUser, wantStatusCode: http.StatusForbidden},
		{name: "guide_forbidden", role: user.RoleGuide, wantStatusCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := protectedRouter(makeMW(tt.role), middlewares.RequireRoles(user.RoleAdmin, user.RoleLeadGuide))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer ok")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusForbidden && !strings.Contains(w.Body.String(), "You do not have permission to perform this action.") {
				t.Fatalf("body %q missing permission message", w.Body.String())
			}
		})
	}
}
