package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/geotours/tourhub/internal/apperr"
	"github.com/geotours/tourhub/internal/config"
	"github.com/geotours/tourhub/internal/domain/user"
	"github.com/geotours/tourhub/internal/http/middlewares"
	"github.com/geotours/tourhub/internal/mailer"
	"github.com/geotours/tourhub/internal/repo/mongodb"
	"github.com/geotours/tourhub/internal/security"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, u user.User) (user.User, error)
}

type CredentialStore interface {
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	SetResetToken(ctx context.Context, id string, digest string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	ConsumeResetToken(ctx context.Context, digest string, passwordHash string) (user.User, error)
}

type TokenIssuer interface {
	Issue(subjectID string) (string, error)
}

type AuthHandler struct {
	users       UserReader
	userWriter  UserWriter
	credentials CredentialStore
	jwt         TokenIssuer
	mail        mailer.Mailer
	resetTTL    time.Duration
	resp        *Responder
}

func NewAuthHandler(users UserReader, userWriter UserWriter, credentials CredentialStore, jwt TokenIssuer, mail mailer.Mailer, resetTTL time.Duration, resp *Responder) *AuthHandler {
	return &AuthHandler{
		users:       users,
		userWriter:  userWriter,
		credentials: credentials,
		jwt:         jwt,
		mail:        mail,
		resetTTL:    resetTTL,
		resp:        resp,
	}
}

// respondWithToken issues a fresh token for the user and writes the login
// envelope.
func (h *AuthHandler) respondWithToken(ctx *gin.Context, status int, u user.User) {
	token, err := h.jwt.Issue(u.ID.Hex())

	if err != nil {
		h.resp.Error(ctx, err)
		return
	}

	Success(ctx, status, gin.H{
		"token": token,
		"data":  gin.H{"user": u},
	})
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !h.resp.BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.resp.Error(ctx, err)
		return
	}

	// new accounts always start as plain users
	u, err := h.userWriter.Create(cctx, user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         user.RoleUser,
	})

	if err != nil {
		h.resp.Error(ctx, translateRepoErr(err, "Could not create user"))
		return
	}

	h.respondWithToken(ctx, http.StatusCreated, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !h.resp.BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		// Same message whether the email or the password is wrong.
		h.resp.Error(ctx, apperr.Unauthorized("invalid_credentials", "Invalid email or password"))
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		h.resp.Error(ctx, apperr.Unauthorized("invalid_credentials", "Invalid email or password"))
		return
	}

	h.respondWithToken(ctx, http.StatusOK, foundUser)
}

func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req user.ForgotPasswordRequest

	if !h.resp.BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)

	defer cancel()

	u, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		h.resp.Fail(ctx, http.StatusNotFound, "There is no user with that email address")
		return
	}

	plain, digest, err := security.NewResetToken()

	if err != nil {
		h.resp.Error(ctx, err)
		return
	}

	expiresAt := time.Now().UTC().Add(h.resetTTL)

	err = h.credentials.SetResetToken(cctx, u.ID.Hex(), digest, expiresAt)

	if err != nil {
		h.resp.Error(ctx, err)
		return
	}

	resetURL := fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s", requestScheme(ctx), ctx.Request.Host, plain)

	err = h.mail.SendPasswordReset(cctx, mailer.PasswordResetInput{
		Email:    u.Email,
		Name:     u.Name,
		ResetURL: resetURL,
		Validity: h.resetTTL.String(),
	})

	if err != nil {
		// Compensating write: a token nobody received must not stay live.
		_ = h.credentials.ClearResetToken(cctx, u.ID.Hex())

		h.resp.Error(ctx, apperr.New(http.StatusInternalServerError, "email_failed", "There was an error sending the email. Try again later."))
		return
	}

	Success(ctx, http.StatusOK, gin.H{"message": "Token sent to email"})
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req user.ResetPasswordRequest

	if !h.resp.BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.resp.Error(ctx, err)
		return
	}

	digest := security.HashResetToken(ctx.Param("token"))

	u, err := h.credentials.ConsumeResetToken(cctx, digest, hash)

	if err != nil {
		if errors.Is(err, mongodb.ErrResetTokenInvalid) {
			h.resp.Error(ctx, apperr.BadRequest("invalid_reset_token", "The token is invalid or has expired"))
			return
		}

		h.resp.Error(ctx, err)
		return
	}

	h.respondWithToken(ctx, http.StatusOK, u)
}

func (h *AuthHandler) UpdatePassword(ctx *gin.Context) {
	actor, ok := middlewares.CurrentUser(ctx)

	if !ok {
		h.resp.Fail(ctx, http.StatusUnauthorized, "You are not logged in. Please log in to get access.")
		return
	}

	var req user.UpdatePasswordRequest

	if !h.resp.BindJSON(ctx, &req) {
		return
	}

	err := security.CheckPassword(actor.PasswordHash, req.CurrentPassword)

	if err != nil {
		h.resp.Error(ctx, apperr.Unauthorized("wrong_password", "Your current password is wrong"))
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.resp.Error(ctx, err)
		return
	}

	err = h.credentials.UpdatePassword(cctx, actor.ID.Hex(), hash)

	if err != nil {
		h.resp.Error(ctx, translateRepoErr(err, "The user belonging to this token no longer exists."))
		return
	}

	// the old token is stale now; hand back a fresh one
	h.respondWithToken(ctx, http.StatusOK, actor)
}

func requestScheme(ctx *gin.Context) string {
	if ctx.Request.TLS != nil {
		return "https"
	}

	if proto := ctx.GetHeader("X-Forwarded-Proto"); proto == "https" {
		return "https"
	}

	return "http"
}
