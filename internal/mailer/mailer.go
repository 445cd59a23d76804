package mailer

import "context"

type PasswordResetInput struct {
	Email    string
	Name     string
	ResetURL string
	Validity string
}

type Mailer interface {
	SendPasswordReset(ctx context.Context, in PasswordResetInput) error
}
