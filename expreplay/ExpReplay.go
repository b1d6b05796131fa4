// Package expreplay implements experience replay buffers which store
// the transitions an agent sees in its environment.
package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/atarirl/timestep"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	// Maximum number of transitions stored. Once reached, the oldest
	// transition is removed for every new transition.
	MaxReplayCapacity int

	// Number of transitions required to be in the buffer before the
	// buffer can be sampled
	MinReplayCapacity int

	// Number of transitions in a sampled batch
	SampleSize int
}

// Validate returns an error describing whether or not the
// configuration is valid or not.
func (c Config) Validate() error {
	if c.MinReplayCapacity <= 0 {
		return fmt.Errorf("validate: minimum replay capacity must be > 0")
	}
	if c.MaxReplayCapacity < 2 {
		return fmt.Errorf("validate: maximum replay capacity must be >= 2")
	}
	if c.MinReplayCapacity > c.MaxReplayCapacity {
		return fmt.Errorf("validate: minimum replay capacity (%v) must not "+
			"exceed maximum replay capacity (%v)", c.MinReplayCapacity,
			c.MaxReplayCapacity)
	}
	if c.SampleSize < 1 {
		return fmt.Errorf("validate: sample size must be >= 1")
	}
	return nil
}

// Create creates and returns the ExperienceReplayer with the specified
// Config. Batches are sampled uniformly at random using rng.
func (c Config) Create(featureSize int, rng *rand.Rand) (ExperienceReplayer,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	sampler := NewUniformSelector(c.SampleSize, rng)
	return New(sampler, c.MinReplayCapacity, c.MaxReplayCapacity,
		featureSize)
}

// Batch is a batch of transitions sampled from an ExperienceReplayer.
// State data is stored in row major order, one row of features per
// sampled transition.
type Batch struct {
	States     []float64
	Actions    []int
	Rewards    []float64
	Masks      []float64 // 0.0 where the episode ended
	NextStates []float64
}

// Len returns the number of transitions in the batch
func (b Batch) Len() int {
	return len(b.Actions)
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Push adds a transition to the buffer, removing the oldest
	// transition if the buffer is full
	Push(t timestep.Transition) error

	// Len returns the current number of samples in the buffer
	Len() int

	// Sample samples a batch of experience from the buffer. The next
	// state of a sampled transition is the state of the transition
	// pushed directly after it.
	Sample() (Batch, error)

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// fifoCache implements a concrete ExperienceReplayer where transitions
// are removed from the buffer in a FiFo manner, one transition at a
// time. This is the most common use of experience replay.
//
// Transitions are stored in a ring. The successor of the transition at
// logical index i (counted from the oldest) is the transition at i+1,
// so the newest transition is never sampled.
type fifoCache struct {
	transitions []timestep.Transition
	next        int // Position the next transition is written to
	size        int

	sampler Selector

	minCapacity int
	maxCapacity int
	featureSize int
}

// New creates and returns a new ExperienceReplayer. The sampler
// paramter is a Selector which determines how data is sampled from the
// replay buffer. The featureSize parameter defines the number of
// elements in each state; pixel observations are flattened when they
// are sampled.
func New(sampler Selector, minCapacity, maxCapacity,
	featureSize int) (ExperienceReplayer, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < 2 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 2")
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("new: featureSize must be >= 1")
	}

	return &fifoCache{
		transitions: make([]timestep.Transition, maxCapacity),
		sampler:     sampler,
		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
	}, nil
}

// Push adds a transition to the buffer
func (c *fifoCache) Push(t timestep.Transition) error {
	if _, err := c.features(t.State); err != nil {
		return &ExpReplayError{Op: "push", Err: err}
	}

	c.transitions[c.next] = t
	c.next = (c.next + 1) % c.maxCapacity
	if c.size < c.maxCapacity {
		c.size++
	}
	return nil
}

// Len returns the current number of samples in the buffer
func (c *fifoCache) Len() int {
	return c.size
}

// MaxCapacity returns the maximum allowable samples in the buffer
func (c *fifoCache) MaxCapacity() int {
	return c.maxCapacity
}

// MinCapacity returns the number of samples required to be in the
// buffer before the buffer can be sampled
func (c *fifoCache) MinCapacity() int {
	return c.minCapacity
}

// BatchSize returns the number of samples sampled using Sample() -
// a.k.a the batch size
func (c *fifoCache) BatchSize() int {
	return c.sampler.BatchSize()
}

// at returns the transition at logical index i, counted from the
// oldest transition in the buffer
func (c *fifoCache) at(i int) timestep.Transition {
	oldest := (c.next - c.size + c.maxCapacity) % c.maxCapacity
	return c.transitions[(oldest+i)%c.maxCapacity]
}

// Sample samples and returns a batch of transitions from the replay
// buffer
func (c *fifoCache) Sample() (Batch, error) {
	if c.Len() == 0 {
		return Batch{}, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if c.Len() < c.MinCapacity() || c.Len() < 2 {
		return Batch{}, &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
	}

	indices := c.sampler.choose(c.Len() - 1)
	batch := Batch{
		States:     make([]float64, len(indices)*c.featureSize),
		Actions:    make([]int, len(indices)),
		Rewards:    make([]float64, len(indices)),
		Masks:      make([]float64, len(indices)),
		NextStates: make([]float64, len(indices)*c.featureSize),
	}

	for i, index := range indices {
		t := c.at(index)
		next := c.at(index + 1)

		state, err := c.features(t.State)
		if err != nil {
			return Batch{}, &ExpReplayError{Op: "sample", Err: err}
		}
		nextState, err := c.features(next.State)
		if err != nil {
			return Batch{}, &ExpReplayError{Op: "sample", Err: err}
		}

		start := i * c.featureSize
		copy(batch.States[start:start+c.featureSize], state)
		copy(batch.NextStates[start:start+c.featureSize], nextState)
		batch.Actions[i] = t.Action
		batch.Rewards[i] = t.Reward
		batch.Masks[i] = t.DoneMask
	}

	return batch, nil
}

// features returns the flattened float64 data of a state
func (c *fifoCache) features(state tensor.Tensor) ([]float64, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", errIncompatibleState)
	}
	if dense, ok := state.(*tensor.Dense); ok && dense.IsMaterializable() {
		state = dense.Materialize()
	}

	data, ok := state.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("%w: want dtype float64, have %v",
			errIncompatibleState, state.Dtype())
	}
	if len(data) != c.featureSize {
		return nil, fmt.Errorf("%w: want %v features, have %v (shape %v)",
			errIncompatibleState, c.featureSize, len(data), state.Shape())
	}
	return data, nil
}

// String returns the string representation of the cache
func (c *fifoCache) String() string {
	return fmt.Sprintf("FifoCache | Size: %v  |  Capacity: [%v, %v]  |  "+
		"Features: %v", c.size, c.minCapacity, c.maxCapacity, c.featureSize)
}
