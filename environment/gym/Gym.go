// Package gym provides access to OpenAI Gym's Atari environments.
//
// Observations of Atari environments are RGB frames. The frames are
// returned by GoGym as flat vectors and are reshaped into
// (height, width, 3) tensors.
//
// This is made possible through the Go bindings for OpenAI Gym,
// found at https://github.com/samuelfneumann/GoGym.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	env "github.com/samuelfneumann/atarirl/environment"
	ts "github.com/samuelfneumann/atarirl/timestep"
)

// AtariShape is the shape of frames rendered by the Atari emulator
var AtariShape = []int{210, 160, 3}

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	env        gogym.Environment
	name       string
	frameShape []int
	numActions int

	currentStep ts.TimeStep
}

// New returns a new GymEnv with the given name, which must be a legal
// name of an environment with discrete actions and frame observations
// of shape frameShape. If frameShape is nil, AtariShape is used.
func New(name string, frameShape []int, seed uint64) (*GymEnv, error) {
	if frameShape == nil {
		frameShape = AtariShape
	}
	if len(frameShape) != 3 {
		return nil, fmt.Errorf("new: frame shape must be (height, width, "+
			"channels), have %v", frameShape)
	}

	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, fmt.Errorf("new: could not create environment: %v", err)
	}
	goGymEnv.Seed(int(seed))

	g := &GymEnv{
		env:        goGymEnv,
		name:       name,
		frameShape: append([]int{}, frameShape...),
	}

	actions, ok := goGymEnv.ActionSpace().(*gogym.DiscreteSpace)
	if !ok {
		goGymEnv.Close()
		return nil, fmt.Errorf("new: environment %v must have discrete "+
			"actions", name)
	}
	g.numActions = int(actions.High()[0].AtVec(0)) + 1

	if obs, ok := goGymEnv.ObservationSpace().(*gogym.BoxSpace); ok {
		if size := obs.Low()[0].Len(); size != g.frameLen() {
			goGymEnv.Close()
			return nil, fmt.Errorf("new: observations of %v have %v "+
				"elements, frame shape %v has %v", name, size, frameShape,
				g.frameLen())
		}
	}

	return g, nil
}

// Name returns the name of the Gym environment
func (g *GymEnv) Name() string {
	return g.name
}

// Step takes a single environmental step
func (g *GymEnv) Step(action int) (ts.TimeStep, bool, error) {
	if action < 0 || action >= g.numActions {
		return ts.TimeStep{}, true, fmt.Errorf("step: action %v out of "+
			"range [0, %v)", action, g.numActions)
	}

	a := mat.NewVecDense(1, []float64{float64(action)})
	obs, reward, done, err := g.env.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	frame, err := g.frame(obs)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
	}

	t := ts.New(ts.Mid, reward, frame, g.currentStep.Number+1)
	if done {
		t.StepType = ts.Last
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.env.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	frame, err := g.frame(obs)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	t := ts.New(ts.First, 0, frame, 0)
	g.currentStep = t

	return t, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	return env.NewPixelSpec(g.frameShape[0], g.frameShape[1],
		g.frameShape[2])
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	return env.NewDiscreteActionSpec(g.numActions)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.env.Close()
	return nil
}

// Finalize shuts down the Python interpreter used by GoGym. No
// environments can be created after Finalize is called.
func Finalize() {
	gogym.Close()
}

func (g *GymEnv) frameLen() int {
	return g.frameShape[0] * g.frameShape[1] * g.frameShape[2]
}

// frame reshapes a flat observation into a frame
func (g *GymEnv) frame(obs *mat.VecDense) (tensor.Tensor, error) {
	if obs.Len() != g.frameLen() {
		return nil, fmt.Errorf("observation has %v elements, want %v for "+
			"frame shape %v", obs.Len(), g.frameLen(), g.frameShape)
	}

	data := make([]float64, obs.Len())
	copy(data, obs.RawVector().Data)
	return tensor.New(tensor.WithShape(g.frameShape...),
		tensor.WithBacking(data)), nil
}
