package engine

import (
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Seeds pairs the secret server seed with the public client seed.
type Seeds struct {
	Server string `json:"server"` // ASCII; do NOT hex-decode
	Client string `json:"client"`
}

// HashServerSeed returns the hex SHA-256 of the server seed, which is what
// gets published before a session starts.
func HashServerSeed(serverSeed string) string {
	if serverSeed == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(hash[:])
}

// NewSeeds generates a random 32-byte server seed and a UUID client seed.
func NewSeeds() (Seeds, error) {
	var b [32]byte
	if _, err := crand.Read(b[:]); err != nil {
		return Seeds{}, fmt.Errorf("read server seed: %w", err)
	}
	return Seeds{
		Server: hex.EncodeToString(b[:]),
		Client: uuid.NewString(),
	}, nil
}
