package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}

	return false
}

type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	Photo             string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Role              Role               `bson:"role" json:"role"`
	PasswordHash      string             `bson:"password" json:"-"` // never expose hash in JSON
	PasswordChangedAt *time.Time         `bson:"passwordChangedAt,omitempty" json:"-"`
	ResetTokenHash    string             `bson:"passwordResetToken,omitempty" json:"-"`
	ResetTokenExpires *time.Time         `bson:"passwordResetExpiresAt,omitempty" json:"-"`
	Active            bool               `bson:"active" json:"-"`
	CreatedAt         time.Time          `bson:"createdAt" json:"-"`
}

// PasswordChangedAfter reports whether the stored password changed after the
// given token issuance time. Tokens issued before a password change are stale.
func (u User) PasswordChangedAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}

	// Truncate to seconds: JWT iat has second precision.
	return u.PasswordChangedAt.Truncate(time.Second).After(issuedAt.Truncate(time.Second))
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
}

type UpdateMeRequest struct {
	Name  string `json:"name" binding:"omitempty,min=1"`
	Email string `json:"email" binding:"omitempty,email"`
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     Role   `json:"role" binding:"omitempty,oneof=user guide lead-guide admin"`
}
