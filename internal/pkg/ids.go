package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const maxSessionID = 99999999

// GenerateSessionID - generates a random numeric identifier for a session.
func GenerateSessionID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxSessionID))
	if err != nil {
		return "", fmt.Errorf("failed to read random number: %w", err)
	}

	return n.String(), nil
}
