// Package credentials generates random operator passwords.
package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// MinPasswordLength is the shortest password GeneratePassword produces
const MinPasswordLength = 12

const passwordChars = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GeneratePassword returns a random password of length characters drawn from
// letters and digits, leaving out look-alikes such as 0/O and 1/l.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength {
		length = MinPasswordLength
	}

	password := make([]byte, length)
	max := big.NewInt(int64(len(passwordChars)))
	for i := range password {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		password[i] = passwordChars[num.Int64()]
	}

	return string(password), nil
}
