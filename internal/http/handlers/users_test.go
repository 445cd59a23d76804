package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/geotours/tourhub/internal/domain/user"
	"github.com/geotours/tourhub/internal/http/handlers"
	"github.com/geotours/tourhub/internal/query"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListUsers(t *testing.T) {
	repo := &fakeUsersRepo{
		listFn: func(ctx context.Context, opts query.Options) ([]user.User, error) {
			// the hidden-field exclusions must reach the query builder
			if opts.Projection == nil {
				t.Error("projection not built from hidden fields")
			}

			return []user.User{
				{ID: primitive.NewObjectID(), Name: "Jo", Email: "jo@example.com", Role: user.RoleUser},
				{ID: primitive.NewObjectID(), Name: "Sam", Email: "sam@example.com", Role: user.RoleGuide},
			}, nil
		},
	}

	h := handlers.NewUsersHandler(repo, testResponder())

	r := gin.New()
	r.GET("/users", h.ListUsers)

	w := doJSON(r, http.MethodGet, "/users", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Body.String(), `"results":2`) {
		t.Fatalf("body %q missing results count", w.Body.String())
	}

	if !strings.Contains(w.Body.String(), `"status":"success"`) {
		t.Fatalf("body %q missing success envelope", w.Body.String())
	}
}

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantStatusCode int
	}{
		{
			name:           "success_with_role",
			body:           `{"name":"Sam","email":"sam@example.com","password":"password123","role":"guide"}`,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "invalid_role",
			body:           `{"name":"Sam","email":"sam@example.com","password":"password123","role":"root"}`,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "missing_email",
			body:           `{"name":"Sam","password":"password123"}`,
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewUsersHandler(&fakeUsersRepo{}, testResponder())

			r := gin.New()
			r.POST("/users", h.CreateUser)

			w := doJSON(r, http.MethodPost, "/users", tt.body, nil)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdateMe(t *testing.T) {
	actor := user.User{
		ID:    primitive.NewObjectID(),
		Name:  "Jo",
		Email: "jo@example.com",
		Role:  user.RoleUser,
	}

	header := http.Header{"Authorization": []string{"Bearer ok"}}

	t.Run("rejects_password_field", func(t *testing.T) {
		repo := &fakeUsersRepo{
			updateProfileFn: func(ctx context.Context, id string, req user.UpdateMeRequest) (user.User, error) {
				t.Fatal("profile updated despite password in payload")
				return user.User{}, nil
			},
		}

		h := handlers.NewUsersHandler(repo, testResponder())

		r := authedRouter(actor, http.MethodPatch, "/updateMe", h.UpdateMe)

		w := doJSON(r, http.MethodPatch, "/updateMe", `{"name":"Joanna","password":"sneaky12"}`, header)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400, body=%s", w.Code, w.Body.String())
		}

		if !strings.Contains(w.Body.String(), "This route is not for password updates. Please use /updatePassword.") {
			t.Fatalf("body %q missing redirect message", w.Body.String())
		}
	})

	t.Run("updates_name_and_email", func(t *testing.T) {
		repo := &fakeUsersRepo{
			updateProfileFn: func(ctx context.Context, id string, req user.UpdateMeRequest) (user.User, error) {
				if id != actor.ID.Hex() {
					t.Errorf("update targeted %q, want %q", id, actor.ID.Hex())
				}

				updated := actor
				updated.Name = req.Name

				return updated, nil
			},
		}

		h := handlers.NewUsersHandler(repo, testResponder())

		r := authedRouter(actor, http.MethodPatch, "/updateMe", h.UpdateMe)

		w := doJSON(r, http.MethodPatch, "/updateMe", `{"name":"Joanna"}`, header)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
		}

		if !strings.Contains(w.Body.String(), "Joanna") {
			t.Fatalf("body %q missing updated name", w.Body.String())
		}
	})
}

func TestDeleteMe(t *testing.T) {
	actor := user.User{
		ID:   primitive.NewObjectID(),
		Role: user.RoleUser,
	}

	deactivated := ""

	repo := &fakeUsersRepo{
		deactivateFn: func(ctx context.Context, id string) error {
			deactivated = id
			return nil
		},
	}

	h := handlers.NewUsersHandler(repo, testResponder())

	// deactivation rides on PATCH, same as the profile routes
	r := authedRouter(actor, http.MethodPatch, "/deleteMe", h.DeleteMe)

	header := http.Header{"Authorization": []string{"Bearer ok"}}

	w := doJSON(r, http.MethodPatch, "/deleteMe", "", header)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204, body=%s", w.Code, w.Body.String())
	}

	if deactivated != actor.ID.Hex() {
		t.Errorf("deactivated %q, want %q", deactivated, actor.ID.Hex())
	}

	// deactivation is idempotent: repeating it still succeeds
	again := doJSON(r, http.MethodPatch, "/deleteMe", "", header)

	if again.Code != http.StatusNoContent {
		t.Fatalf("repeat status = %d, want 204, body=%s", again.Code, again.Body.String())
	}
}
