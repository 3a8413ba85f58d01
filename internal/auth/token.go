// Package auth verifies the bearer token that guards the admin API. Only the
// bcrypt hash of the token is kept in configuration.
package auth

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 12

// HashToken returns a bcrypt hash of the admin token.
func HashToken(token string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(token), bcryptCost)
	return string(b), err
}

// VerifyToken reports whether token matches the stored bcrypt hash.
func VerifyToken(hash, token string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
