// Package environment outlines the interfaces and sturcts needed to implement
// concrete environments
package environment

import (
	ts "github.com/samuelfneumann/atarirl/timestep"
)

// Environment implements a simulated environment producing pixel
// observations. Actions are enumerated from 0.
//
// An Environment holds external resources (an emulator, a Python
// interpreter, ...) and must be closed after use.
type Environment interface {
	// Reset resets the environment between episodes and returns the
	// first TimeStep of the new episode
	Reset() (ts.TimeStep, error)

	// Step takes a single environmental step, returning the next
	// TimeStep and whether the episode has ended
	Step(action int) (ts.TimeStep, bool, error)

	ObservationSpec() Spec
	ActionSpec() Spec

	// Close releases any resources held by the environment
	Close() error
}
