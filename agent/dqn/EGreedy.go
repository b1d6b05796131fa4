package dqn

import (
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/atarirl/utils/floatutils"
)

// LinearDecay is an exploration schedule where ε decays linearly from
// Start to End over Steps action selections, after which it stays at
// End.
type LinearDecay struct {
	Start float64
	End   float64
	Steps int
}

// At returns ε after t action selections
func (l LinearDecay) At(t int) float64 {
	if t >= l.Steps {
		return l.End
	}
	frac := float64(t) / float64(l.Steps)
	return l.Start + frac*(l.End-l.Start)
}

// EGreedy implements an ε-greedy policy over action values whose ε
// follows a schedule
type EGreedy struct {
	schedule   LinearDecay
	selections int
	rng        *rand.Rand
}

// NewEGreedy returns a new EGreedy policy. Random actions and ties
// between greedy actions are sampled with rng.
func NewEGreedy(schedule LinearDecay, rng *rand.Rand) *EGreedy {
	return &EGreedy{schedule: schedule, rng: rng}
}

// Epsilon returns the value of ε used for the next action selection
func (e *EGreedy) Epsilon() float64 {
	return e.schedule.At(e.selections)
}

// Selections returns the number of actions selected so far
func (e *EGreedy) Selections() int {
	return e.selections
}

// Select selects an action given the action values of a state. With
// probability ε a uniform random action is returned, otherwise an
// action of maximum value is returned, with ties broken uniformly
// randomly.
func (e *EGreedy) Select(actionValues []float64) int {
	ε := e.Epsilon()
	e.selections++

	if e.rng.Float64() < ε {
		return e.rng.Intn(len(actionValues))
	}

	_, maxIndices := floatutils.MaxSlice(actionValues)
	return maxIndices[e.rng.Intn(len(maxIndices))]
}
