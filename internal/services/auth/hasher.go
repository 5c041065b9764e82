// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor for all credential hashes.
const bcryptCost = 10

// ErrHashMismatch is returned when a secret does not match its stored hash.
var ErrHashMismatch = errors.New("hash mismatch")

// ErrHashFormat is returned when a stored digest is not a valid bcrypt hash.
var ErrHashFormat = errors.New("malformed hash")

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword compares a cleartext password against its bcrypt hash.
func CheckPassword(password, hash string) error {
	return compare(password, hash)
}

// HashToken hashes a refresh token for storage. The token is fingerprinted
// with sha256 first, which bounds bcrypt's 72-byte input limit and avoids
// feeding the full-length JWT to the slow hash.
func HashToken(token string) (string, error) {
	return HashPassword(fingerprint(token))
}

// CheckToken compares a presented refresh token against the stored hash.
func CheckToken(token, hash string) error {
	return compare(fingerprint(token), hash)
}

func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func compare(secret, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrHashMismatch
	}
	return ErrHashFormat
}
