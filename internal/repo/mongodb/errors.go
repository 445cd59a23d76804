package mongodb

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrTourNotFound      = errors.New("tour not found")
	ErrEmailAlreadyUsed  = errors.New("email already in use")
	ErrNameAlreadyUsed   = errors.New("tour name already in use")
	ErrInvalidID         = errors.New("invalid identifier")
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
)
