package helpers

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost factor used for stored credentials.
const PasswordCost = 10

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword compares a bcrypt hash with a plain password
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// tokenDigest folds a token of arbitrary length into bcrypt's 72-byte input
// limit; signed JWTs always exceed it.
func tokenDigest(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return []byte(hex.EncodeToString(sum[:]))
}

// HashToken stores a refresh token as bcrypt over its SHA-256 digest.
func HashToken(token string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(tokenDigest(token), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndToken reports whether hash was produced by HashToken(token).
func CompareHashAndToken(hash string, token string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), tokenDigest(token)) == nil
}
