package utils

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

const referralCodeLength = 8

// GenerateReferralCode creates a random 8-character base58 code (case-sensitive)
func GenerateReferralCode() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	code := base58.Encode(b)
	if len(code) < referralCodeLength {
		return "", fmt.Errorf("generated code too short")
	}

	return code[:referralCodeLength], nil
}

// NewReference returns a unique ledger reference such as "TXN-8F0C..."
func NewReference(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + "-" + id
}
