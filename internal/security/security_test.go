package security_test

import (
	"testing"

	"github.com/geotours/tourhub/internal/security"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("correct horse battery staple")

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if hash == "correct horse battery staple" {
		t.Fatal("hash equals plaintext")
	}

	if err := security.CheckPassword(hash, "correct horse battery staple"); err != nil {
		t.Errorf("check with right password failed: %v", err)
	}

	if err := security.CheckPassword(hash, "wrong password"); err == nil {
		t.Error("check with wrong password succeeded")
	}
}

func TestNewResetToken(t *testing.T) {
	plain, digest, err := security.NewResetToken()

	if err != nil {
		t.Fatalf("new reset token failed: %v", err)
	}

	if plain == "" || digest == "" {
		t.Fatal("empty token or digest")
	}

	if plain == digest {
		t.Fatal("plaintext and digest must differ")
	}

	// the presented-token path must reproduce the stored digest
	if security.HashResetToken(plain) != digest {
		t.Error("re-hashing the plaintext does not match the digest")
	}

	// two tokens must never collide
	plain2, digest2, err := security.NewResetToken()

	if err != nil {
		t.Fatalf("second token failed: %v", err)
	}

	if plain2 == plain || digest2 == digest {
		t.Error("consecutive tokens collide")
	}
}
