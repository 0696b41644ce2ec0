package dice

import (
	"crypto/rand"
	"encoding/binary"
)

// cryptoSource implements Source using crypto/rand.
//
// Invariant: values are uniformly distributed over the 2^53 representable
// multiples of 2^-53 in [0, 1).
type cryptoSource struct{}

// NewCryptoSource returns the ambient Source used for rolls that are not part
// of the persisted stream (enhancement attempts).
//
// Postcondition: every value returned by Float64 is in [0, 1).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Float64 returns a cryptographically secure value in [0, 1).
//
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) / (1 << 53)
}

// Fixed is a Source that replays a fixed sequence of values, cycling when
// exhausted. It is intended for tests and tooling.
type Fixed struct {
	Values []float64
	next   int
}

// Float64 returns the next value in the sequence, or 0 when Values is empty.
func (f *Fixed) Float64() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.next%len(f.Values)]
	f.next++
	return v
}
