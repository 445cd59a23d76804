package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geotours/tourhub/internal/config"
	"github.com/geotours/tourhub/internal/domain/user"
	"github.com/geotours/tourhub/internal/http/middlewares"
	"github.com/geotours/tourhub/internal/query"
	"github.com/geotours/tourhub/internal/security"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	List(ctx context.Context, opts query.Options) ([]user.User, error)
	UpdateProfile(ctx context.Context, id string, req user.UpdateMeRequest) (user.User, error)
	Deactivate(ctx context.Context, id string) error
	HiddenFields() []string
}

type UsersHandler struct {
	repo UsersStore
	resp *Responder
}

func NewUsersHandler(repo UsersStore, resp *Responder) *UsersHandler {
	return &UsersHandler{repo: repo, resp: resp}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	opts := query.Build(ctx.Request.URL.Query(), h.repo.HiddenFields()...)

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	users, err := h.repo.List(cctx, opts)

	if err != nil {
		h.resp.Error(ctx, err)
		return
	}

	Success(ctx, http.StatusOK, gin.H{
		"results": len(users),
		"data":    gin.H{"users": users},
	})
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !h.resp.BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.resp.Error(ctx, err)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.repo.Create(cctx, user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	})

	if err != nil {
		h.resp.Error(ctx, translateRepoErr(err, "Could not create user"))
		return
	}

	Success(ctx, http.StatusCreated, gin.H{
		"data": gin.H{"user": u},
	})
}

// updateMePayload exists to catch password fields sneaking into a profile
// update; those must go through /updatePassword so the change stamps the
// password-changed timestamp.
type updateMePayload struct {
	Name     string `json:"name" binding:"omitempty,min=1"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password"`
}

func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	actor, ok := middlewares.CurrentUser(ctx)

	if !ok {
		h.resp.Fail(ctx, http.StatusUnauthorized, "You are not logged in. Please log in to get access.")
		return
	}

	var req updateMePayload

	if !h.resp.BindJSON(ctx, &req) {
		return
	}

	if req.Password != "" {
		h.resp.Fail(ctx, http.StatusBadRequest, "This route is not for password updates. Please use /updatePassword.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.repo.UpdateProfile(cctx, actor.ID.Hex(), user.UpdateMeRequest{
		Name:  req.Name,
		Email: req.Email,
	})

	if err != nil {
		h.resp.Error(ctx, translateRepoErr(err, "The user belonging to this token no longer exists."))
		return
	}

	Success(ctx, http.StatusOK, gin.H{
		"data": gin.H{"user": u},
	})
}

func (h *UsersHandler) DeleteMe(ctx *gin.Context) {
	actor, ok := middlewares.CurrentUser(ctx)

	if !ok {
		h.resp.Fail(ctx, http.StatusUnauthorized, "You are not logged in. Please log in to get access.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// deactivation is idempotent; repeating it is not an error
	err := h.repo.Deactivate(cctx, actor.ID.Hex())

	if err != nil {
		h.resp.Error(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Single-item admin operations are deliberately not implemented yet.
func (h *UsersHandler) NotImplemented(ctx *gin.Context) {
	ctx.JSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": "This route is not implemented",
	})
}
