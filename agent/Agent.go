// Package agent defines the capabilities an online training loop
// requires from an agent
package agent

import (
	"github.com/samuelfneumann/atarirl/timestep"
	"gorgonia.org/tensor"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent selects actions, stores the experience it is given in its
// Buffer, and learns from this experience when Train is called. How and
// when it learns is up to the Agent; the training loop only reads the
// number of learning steps the Agent has taken.
//
// Any error returned by an Agent is fatal to the training run.
type Agent interface {
	Policy
	Learner

	// Buffer returns the Agent's experience store
	Buffer() Buffer
}

// Policy selects actions in states. Policies may be stochastic.
type Policy interface {
	// Action returns the action to take in the argument state. The state
	// is either a preprocessed frame or a raw observation, depending on
	// how the training loop is configured.
	Action(state tensor.Tensor) (int, error)
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Train performs zero or one optimisation steps, depending on
	// whether the Learner is ready to learn (e.g. its Buffer holds
	// enough experience).
	Train() error

	// LearnSteps returns the number of optimisation steps performed so
	// far. It increases by exactly one each time Train performs an
	// optimisation step and is otherwise constant.
	LearnSteps() int
}

// Buffer is an agent's experience store
type Buffer interface {
	// Push adds a transition to the buffer. Push takes ownership of the
	// transition's state and must not block.
	Push(t timestep.Transition) error

	// Len returns the current number of transitions stored
	Len() int
}

// Closer is an agent that must be closed after it is done learning
type Closer interface {
	Agent
	Close() error
}
