package game

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Random is the source of randomness for the simulation.
// Tests inject a fixed sequence; the engine uses SeededRandom.
type Random interface {
	Float64() float64
	Intn(n int) int
}

// pcgStream is the fixed second PCG seed word.
const pcgStream = 0x9e3779b97f4a7c15

// SeededRandom is a PCG generator whose state can be saved and loaded, so a
// restored session continues the exact sequence.
type SeededRandom struct {
	seed  int64
	draws uint64
	src   *rand.PCG
	rng   *rand.Rand
}

// NewSeededRandom creates a generator from seed.
func NewSeededRandom(seed int64) *SeededRandom {
	src := rand.NewPCG(uint64(seed), pcgStream)
	return &SeededRandom{seed: seed, src: src, rng: rand.New(src)}
}

// RestoreSeededRandom recreates a generator from a state produced by
// MarshalBinary. draws is carried over as a counter only.
func RestoreSeededRandom(seed int64, draws uint64, state []byte) (*SeededRandom, error) {
	r := NewSeededRandom(seed)
	if err := r.src.UnmarshalBinary(state); err != nil {
		return nil, fmt.Errorf("random state: %w", err)
	}
	r.draws = draws
	return r, nil
}

// MarshalBinary returns the generator state.
func (r *SeededRandom) MarshalBinary() ([]byte, error) {
	return r.src.MarshalBinary()
}

// Float64 returns a value in [0, 1).
func (r *SeededRandom) Float64() float64 {
	r.draws++
	return r.rng.Float64()
}

// Intn returns a value in [0, n). Implemented on Float64 so each call is one draw.
func (r *SeededRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(r.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func timeSeed() int64 { return time.Now().UnixNano() }

// Seed returns the construction seed.
func (r *SeededRandom) Seed() int64 { return r.seed }

// Draws returns how many values have been produced.
func (r *SeededRandom) Draws() uint64 { return r.draws }

// chooseWeighted picks an index from weights using one draw.
// Returns -1 if the total weight is not positive.
func chooseWeighted(rng Random, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	roll := rng.Float64() * total
	acc := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		last = i
		if roll < acc {
			return i
		}
	}
	return last
}
