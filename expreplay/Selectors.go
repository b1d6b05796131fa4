package expreplay

import (
	"golang.org/x/exp/rand"
)

// Selector implements functionality for choosing which stored
// transitions are sampled from an experience replay buffer
type Selector interface {
	// choose selects the logical indices, counted from the oldest
	// stored transition, of the transitions to sample. Indices are
	// drawn from [0, n).
	choose(n int) []int

	// BatchSize returns the number of elements that will be selected
	BatchSize() int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly, with replacement
type uniformSelector struct {
	samples int
	rng     *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly from an experience replay buffer. The rng is used
// exclusively by the Selector from then on.
func NewUniformSelector(samples int, rng *rand.Rand) Selector {
	return &uniformSelector{samples: samples, rng: rng}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (u *uniformSelector) BatchSize() int {
	return u.samples
}

// choose selects a number of indices at which to draw data from the
// buffer
func (u *uniformSelector) choose(n int) []int {
	selected := make([]int, u.BatchSize())
	for i := range selected {
		selected[i] = u.rng.Intn(n)
	}
	return selected
}

// newestSelector selects the most recent samples in the buffer. It
// is mostly useful for testing.
type newestSelector struct {
	samples int
}

// NewNewestSelector returns a new Selector which selects the most
// recently added samples which can be sampled, newest first.
func NewNewestSelector(samples int) Selector {
	return &newestSelector{samples: samples}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (n *newestSelector) BatchSize() int {
	return n.samples
}

// choose selects a number of indices at which to draw data from the
// buffer
func (n *newestSelector) choose(size int) []int {
	selected := make([]int, n.BatchSize())
	for i := range selected {
		index := size - 1 - i
		if index < 0 {
			index = 0
		}
		selected[i] = index
	}
	return selected
}
