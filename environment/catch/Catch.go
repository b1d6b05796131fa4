// Package catch implements the Catch environment with pixel
// observations.
//
// In Catch, a ball falls from the top row of a grid, one row per step,
// starting in a random column. The agent moves a paddle along the
// bottom row and must catch the ball. When the ball reaches the bottom
// row the episode ends with a reward of +1 if the ball was caught and
// -1 otherwise. All other rewards are 0.
//
// Observations are RGB frames of shape (Rows*CellSize, Cols*CellSize,
// 3) with values in [0, 255]: the ball is white, the paddle red and the
// background black.
package catch

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"

	env "github.com/samuelfneumann/atarirl/environment"
	ts "github.com/samuelfneumann/atarirl/timestep"
)

// Name is the environment identifier of Catch
const Name = "Catch-v0"

// Grid dimensions
const (
	Rows     = 10
	Cols     = 5
	CellSize = 8 // Pixels per grid cell side
)

// Actions
const (
	Left int = iota
	Stay
	Right
	NumActions
)

// Catch implements the Catch environment
type Catch struct {
	starter env.Starter
	ender   env.Ender

	ballRow, ballCol int
	paddle           int

	currentStep ts.TimeStep
}

// New returns a new Catch environment. The starting columns of the
// ball and the paddle are sampled uniformly using rng.
func New(rng *rand.Rand) (*Catch, error) {
	starter, err := env.NewCategoricalStarter([]int{Cols, Cols}, rng)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	return &Catch{
		starter: starter,
		ender:   env.NewStepLimit(Rows - 1),
	}, nil
}

// Reset resets the environment to some starting state
func (c *Catch) Reset() (ts.TimeStep, error) {
	start := c.starter.Start()
	c.ballRow, c.ballCol, c.paddle = 0, start[0], start[1]

	c.currentStep = ts.New(ts.First, 0, c.render(), 0)
	return c.currentStep, nil
}

// Step takes a single environmental step
func (c *Catch) Step(action int) (ts.TimeStep, bool, error) {
	if c.currentStep.Last() {
		return ts.TimeStep{}, true, fmt.Errorf("step: episode has ended, " +
			"environment must be reset")
	}

	switch action {
	case Left:
		c.paddle = max(c.paddle-1, 0)
	case Stay:
	case Right:
		c.paddle = min(c.paddle+1, Cols-1)
	default:
		return ts.TimeStep{}, true, fmt.Errorf("step: action %v out of "+
			"range [0, %v)", action, NumActions)
	}
	c.ballRow++

	t := ts.New(ts.Mid, 0, c.render(), c.currentStep.Number+1)
	done := c.ender.End(&t)
	if done {
		t.Reward = -1.0
		if c.ballCol == c.paddle {
			t.Reward = 1.0
		}
	}
	c.currentStep = t

	return t, done, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (c *Catch) CurrentTimeStep() ts.TimeStep {
	return c.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (c *Catch) ObservationSpec() env.Spec {
	return env.NewPixelSpec(Rows*CellSize, Cols*CellSize, 3)
}

// ActionSpec returns the action specification of the environment
func (c *Catch) ActionSpec() env.Spec {
	return env.NewDiscreteActionSpec(NumActions)
}

// Close implements the environment.Environment interface. Catch holds
// no resources.
func (c *Catch) Close() error {
	return nil
}

// render returns the current frame
func (c *Catch) render() tensor.Tensor {
	height, width := Rows*CellSize, Cols*CellSize
	data := make([]float64, height*width*3)

	fill := func(row, col int, rgb [3]float64) {
		for y := row * CellSize; y < (row+1)*CellSize; y++ {
			for x := col * CellSize; x < (col+1)*CellSize; x++ {
				copy(data[(y*width+x)*3:], rgb[:])
			}
		}
	}
	fill(Rows-1, c.paddle, [3]float64{255, 0, 0})
	fill(c.ballRow, c.ballCol, [3]float64{255, 255, 255})

	return tensor.New(tensor.WithShape(height, width, 3),
		tensor.WithBacking(data))
}
