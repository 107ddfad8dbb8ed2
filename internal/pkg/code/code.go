package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	digits = "0123456789"
	lower  = "abcdefghijklmnopqrstuvwxyz"
	upper  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// invitePattern is the character class of each invite code position.
var invitePattern = [...]string{digits, lower, upper, lower, digits, lower}

// NewInvite returns a 6-character invite code shaped digit, lower, upper,
// lower, digit, lower (e.g. "7xAbk9").
func NewInvite() (string, error) {
	b := make([]byte, len(invitePattern))
	for i, set := range invitePattern {
		c, err := pick(set)
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		b[i] = c
	}
	return string(b), nil
}

// NewVerification returns a 5-digit numeric code uniform in [10000, 99999].
func NewVerification() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%d", 10000+n.Int64()), nil
}

func pick(set string) (byte, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[idx.Int64()], nil
}
