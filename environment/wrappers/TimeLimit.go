package wrappers

import (
	"github.com/samuelfneumann/atarirl/environment"
	"github.com/samuelfneumann/atarirl/timestep"
)

// TimeLimit wraps an environment and ends episodes once an Ender
// signals the end of the episode, in addition to when the wrapped
// environment ends them.
//
// TimeLimit itself implements the environment.Environment interface,
// and is therefore itself an Environment.
type TimeLimit struct {
	environment.Environment
	ender environment.Ender
}

// NewTimeLimit returns a new TimeLimit which ends episodes of env after
// episodeSteps steps
func NewTimeLimit(env environment.Environment, episodeSteps int) *TimeLimit {
	return &TimeLimit{env, environment.NewStepLimit(episodeSteps)}
}

// Step takes a single environmental step
func (t *TimeLimit) Step(action int) (timestep.TimeStep, bool, error) {
	step, done, err := t.Environment.Step(action)
	if err != nil {
		return step, done, err
	}

	if t.ender.End(&step) {
		done = true
	}
	return step, done, nil
}
