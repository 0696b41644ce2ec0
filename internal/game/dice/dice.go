// Package dice provides the randomness sources for the idle engine: a seeded
// xorshift32 stream for save-reproducible rolls and an ambient source for rolls
// that are never replayed.
package dice

// Source is a provider of uniform draws in [0, 1).
//
// Implementations bound to a game state are not safe for concurrent use; the
// owning session serialises access.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// NextSeed applies one xorshift32 step (<<13, >>>17, <<5) to seed.
//
// Postcondition: the result is a pure function of seed; NextSeed(0) == 0.
func NextSeed(seed int32) int32 {
	x := uint32(seed)
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	return int32(x)
}

// Rand01 advances *seed by one step and returns the new seed mapped to [0, 1).
//
// Precondition: seed must be non-nil and *seed != 0 (zero is a fixed point).
// Postcondition: *seed == NextSeed(old *seed); result == uint32(*seed) / 2^32.
func Rand01(seed *int32) float64 {
	*seed = NextSeed(*seed)
	return float64(uint32(*seed)) / 4294967296.0
}

// Stream is a Source that threads its draws through an externally owned seed,
// usually GameState.Seed, so that persisting the seed persists the stream.
type Stream struct {
	seed *int32
}

// NewStream binds a Stream to seed.
//
// Precondition: seed must be non-nil.
func NewStream(seed *int32) *Stream {
	return &Stream{seed: seed}
}

// Float64 draws the next value of the stream.
func (s *Stream) Float64() float64 {
	return Rand01(s.seed)
}

// Seed returns the current seed without advancing the stream.
func (s *Stream) Seed() int32 {
	return *s.seed
}

// Intn returns floor(Float64()*n), a value in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" otherwise.
func Intn(src Source, n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	i := int(src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// PickWeighted returns the entry selected by r in [0, 1) against the
// cumulative weights of items. Entries with non-positive weight are never
// picked unless every weight is non-positive, in which case the last entry is
// returned.
//
// Precondition: len(items) > 0.
func PickWeighted[T any](items []T, weight func(T) float64, r float64) T {
	total := 0.0
	for _, it := range items {
		if w := weight(it); w > 0 {
			total += w
		}
	}
	x := r * total
	for _, it := range items {
		w := weight(it)
		if w <= 0 {
			continue
		}
		x -= w
		if x <= 0 {
			return it
		}
	}
	return items[len(items)-1]
}
