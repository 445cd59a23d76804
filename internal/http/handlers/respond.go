package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geotours/tourhub/internal/apperr"
	"github.com/geotours/tourhub/internal/repo/mongodb"
	"github.com/gin-gonic/gin"
)

// Responder renders the response envelope. The dev flag widens error bodies
// with the raw error text; production clients only ever see safe messages.
type Responder struct {
	dev bool
	log *slog.Logger
}

func NewResponder(dev bool, log *slog.Logger) *Responder {
	return &Responder{dev: dev, log: log}
}

// Success writes {status:"success", ...payload}.
func Success(ctx *gin.Context, status int, payload gin.H) {
	body := gin.H{"status": "success"}

	for k, v := range payload {
		body[k] = v
	}

	ctx.JSON(status, body)
}

// Fail writes an operational failure with an explicit status and message.
func (r *Responder) Fail(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{
		"status":  apperr.StatusWord(status),
		"message": message,
	})
}

// Error routes any error into the envelope. Operational errors keep their
// status and message; everything else is logged and masked behind a 500.
func (r *Responder) Error(ctx *gin.Context, err error) {
	if appErr, ok := apperr.From(err); ok {
		body := gin.H{
			"status":  apperr.StatusWord(appErr.Status),
			"message": appErr.Message,
		}

		if r.dev {
			body["error"] = err.Error()
		}

		ctx.JSON(appErr.Status, body)
		return
	}

	reqID, _ := ctx.Get("request_id")

	r.log.ErrorContext(ctx.Request.Context(), "unexpected_error",
		"err", err,
		"request_id", reqID,
	)

	body := gin.H{
		"status":  "error",
		"message": "Something went very wrong!",
	}

	if r.dev {
		body["error"] = err.Error()
	}

	ctx.JSON(http.StatusInternalServerError, body)
}

// translateRepoErr maps the storage sentinels onto operational errors, using
// the not-found message the caller wants. Unknown errors pass through and end
// up as a masked 500.
func translateRepoErr(err error, notFoundMessage string) error {
	switch {
	case errors.Is(err, mongodb.ErrInvalidID):
		return apperr.NotFound("invalid_id", notFoundMessage)
	case errors.Is(err, mongodb.ErrTourNotFound), errors.Is(err, mongodb.ErrUserNotFound):
		return apperr.NotFound("not_found", notFoundMessage)
	case errors.Is(err, mongodb.ErrEmailAlreadyUsed):
		return apperr.NotFound("duplicate_field", "Duplicate field value: email. Please use another value.")
	case errors.Is(err, mongodb.ErrNameAlreadyUsed):
		return apperr.NotFound("duplicate_field", "Duplicate field value: name. Please use another value.")
	}

	return err
}
