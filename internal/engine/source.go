package engine

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// ErrInvalidBound is returned when a draw is requested over an empty range.
var ErrInvalidBound = errors.New("engine: bound must be positive")

// Source yields uniformly distributed integers in [0, n). Implementations
// are not safe for concurrent use; every simulation run owns its own.
type Source interface {
	Intn(n int) (int, error)
}

// CryptoSource draws from the operating system CSPRNG.
type CryptoSource struct {
	reader io.Reader
}

// NewCryptoSource returns a source backed by crypto/rand.
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{reader: crand.Reader}
}

// NewCryptoSourceFrom reads entropy from r instead of the OS.
func NewCryptoSourceFrom(r io.Reader) *CryptoSource {
	return &CryptoSource{reader: r}
}

func (s *CryptoSource) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidBound
	}
	v, err := crand.Int(s.reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("engine: read crypto random: %w", err)
	}
	return int(v.Int64()), nil
}

// SeededSource is a provably fair source: every draw consumes one nonce of
// the HMAC-SHA256 stream, so a session can be replayed from its seeds.
type SeededSource struct {
	seeds Seeds
	nonce uint64
}

// NewSeededSource starts drawing at startNonce.
func NewSeededSource(seeds Seeds, startNonce uint64) *SeededSource {
	return &SeededSource{seeds: seeds, nonce: startNonce}
}

func (s *SeededSource) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidBound
	}
	d := Draw(s.seeds, s.nonce, n)
	s.nonce++
	return d, nil
}

// Nonce is the nonce the next draw will use.
func (s *SeededSource) Nonce() uint64 { return s.nonce }

// Seeds returns the seed pair backing the stream.
func (s *SeededSource) Seeds() Seeds { return s.seeds }
