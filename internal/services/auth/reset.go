// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// resetTokenAlphabet and resetTokenLength shape the short opaque token sent
// by mail, e.g. "OCD7M2". 36^6 possibilities are enough to resist guessing
// within the five-minute validity window.
const (
	resetTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	resetTokenLength   = 6
)

// GenerateResetToken produces an unpredictable password-reset token from a
// cryptographically secure random source. Each character is drawn uniformly
// from the alphabet. Persistence, uniqueness per user and expiry checking
// are the caller's responsibility.
func GenerateResetToken() (string, error) {
	alphabetSize := big.NewInt(int64(len(resetTokenAlphabet)))

	out := make([]byte, resetTokenLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		out[i] = resetTokenAlphabet[n.Int64()]
	}
	return string(out), nil
}
