package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"hash"
	"math"
	"strconv"
)

// The byte stream of a nonce is HMAC-SHA256(server, "client:nonce:k") for
// k = 0, 1, 2, ... concatenated. Every four bytes make one float in [0, 1).

// stream reads the bytes of one nonce starting at any offset.
type stream struct {
	mac   hash.Hash
	label string
	block uint64
	buf   []byte
	pos   int
}

func newStream(seeds Seeds, nonce, offset uint64) *stream {
	s := &stream{
		mac:   hmac.New(sha256.New, []byte(seeds.Server)),
		label: seeds.Client + ":" + strconv.FormatUint(nonce, 10),
		block: offset / sha256.Size,
		pos:   int(offset % sha256.Size),
	}
	s.fill()
	return s
}

func (s *stream) fill() {
	s.mac.Reset()
	fmt.Fprintf(s.mac, "%s:%d", s.label, s.block)
	s.buf = s.mac.Sum(s.buf[:0])
}

func (s *stream) next() byte {
	if s.pos == len(s.buf) {
		s.block++
		s.pos = 0
		s.fill()
	}
	b := s.buf[s.pos]
	s.pos++
	return b
}

func (s *stream) float() float64 {
	return unitFloat([4]byte{s.next(), s.next(), s.next(), s.next()})
}

// unitFloat reads b as four base-256 fractional digits.
func unitFloat(b [4]byte) float64 {
	f, scale := 0.0, 1.0
	for _, d := range b {
		scale /= 256
		f += float64(d) * scale
	}
	return f
}

// Floats returns count floats from the stream of nonce, starting cursor
// bytes in.
func Floats(seeds Seeds, nonce, cursor uint64, count int) []float64 {
	s := newStream(seeds, nonce, cursor)
	out := make([]float64, count)
	for i := range out {
		out[i] = s.float()
	}
	return out
}

// Draw maps the first float of a nonce onto [0, n) as floor(f * n), the
// translation the wheel uses for its 37 pockets.
func Draw(seeds Seeds, nonce uint64, n int) int {
	f := newStream(seeds, nonce, 0).float()
	d := int(math.Floor(f * float64(n)))
	if d >= n {
		d = n - 1
	}
	return d
}
