package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Length is the number of digits in every generated code.
	Length = 6

	minCode = 100000
	span    = 900000
)

// Generate returns a 6-digit numeric code drawn uniformly from [100000, 999999]
// using the operating system's cryptographically secure source.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+minCode), nil
}
