package services

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/inzamam-virk/lottery-app/internal/clock"
)

// NumberSource produces winning numbers
type NumberSource interface {
	Next() (int, error)
}

// CryptoNumberSource draws uniformly from [MinNumber, MaxNumber] using crypto/rand.
type CryptoNumberSource struct{}

func (CryptoNumberSource) Next() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(clock.MaxNumber-clock.MinNumber+1))
	if err != nil {
		return 0, fmt.Errorf("failed to generate winning number: %w", err)
	}
	return int(n.Int64()) + clock.MinNumber, nil
}
