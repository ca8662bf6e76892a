package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// NewOTP returns a numeric one-time passcode of the given length drawn
// from crypto/rand.
func NewOTP(digits int) (string, error) {
	if digits <= 0 {
		digits = 6
	}
	var b strings.Builder
	b.Grow(digits)
	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
