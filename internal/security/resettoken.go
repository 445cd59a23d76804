package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewResetToken returns a high-entropy plaintext reset token and its sha256
// digest. Only the digest is ever stored; the plaintext goes out by email.
func NewResetToken() (plain string, digest string, err error) {
	buf := make([]byte, 32)

	_, err = rand.Read(buf)

	if err != nil {
		return "", "", err
	}

	plain = hex.EncodeToString(buf)

	return plain, HashResetToken(plain), nil
}

// HashResetToken digests a plaintext reset token the same way NewResetToken
// does, so a presented token can be matched against the stored digest.
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))

	return hex.EncodeToString(sum[:])
}
