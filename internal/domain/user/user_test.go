package user_test

import (
	"testing"
	"time"

	"github.com/geotours/tourhub/internal/domain/user"
)

func TestPasswordChangedAfter(t *testing.T) {
	now := time.Now().UTC()

	changed := now.Add(-time.Hour)

	tests := []struct {
		name      string
		changedAt *time.Time
		issuedAt  time.Time
		want      bool
	}{
		{
			name:      "never_changed",
			changedAt: nil,
			issuedAt:  now,
			want:      false,
		},
		{
			name:      "token_issued_after_change",
			changedAt: &changed,
			issuedAt:  now,
			want:      false,
		},
		{
			name:      "token_issued_before_change",
			changedAt: &changed,
			issuedAt:  now.Add(-2 * time.Hour),
			want:      true,
		},
		{
			name:      "same_second_counts_as_fresh",
			changedAt: &changed,
			issuedAt:  changed.Add(500 * time.Millisecond),
			want:      false,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			u := user.User{PasswordChangedAt: tt.changedAt}

			if got := u.PasswordChangedAfter(tt.issuedAt); got != tt.want {
				t.Fatalf("PasswordChangedAfter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []user.Role{user.RoleUser, user.RoleGuide, user.RoleLeadGuide, user.RoleAdmin} {
		if !role.Valid() {
			t.Errorf("role %q should be valid", role)
		}
	}

	if user.Role("superadmin").Valid() {
		t.Error("unknown role accepted")
	}
}
