// Package token generates opaque payment references.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateRef returns a random reference used to correlate a payment with
// the external provider's callback.
func GenerateRef() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate payment ref: %w", err)
	}
	return "pay_" + hex.EncodeToString(b), nil
}
