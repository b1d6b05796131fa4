package dqn

import (
	"fmt"

	"github.com/samuelfneumann/atarirl/environment"
	"github.com/samuelfneumann/atarirl/expreplay"
	"github.com/samuelfneumann/atarirl/network"
	"github.com/samuelfneumann/atarirl/solver"
)

// Config implements a configuration for a DQN agent
type Config struct {
	StateShape []int `json:"state_shape"` // Shape of a single state
	NumActions int   `json:"num_actions"`

	// Number of learning steps between target network updates
	TargetUpdateFreq int `json:"target_update_freq"`

	// Experience replay parameters. No learning happens until the
	// buffer holds ReplayStartSize transitions.
	ReplayStartSize int `json:"replay_start_size"`
	BufferSize      int `json:"buffer_size"`
	BatchSize       int `json:"batch_size"`

	// Exploration schedule, ε decays linearly over EpsilonDecaySteps
	// action selections
	EpsilonStart      float64 `json:"epsilon_start"`
	EpsilonEnd        float64 `json:"epsilon_end"`
	EpsilonDecaySteps int     `json:"epsilon_decay_steps"`

	// Gradients are clipped elementwise to [-ClipValue, ClipValue]
	// when GradientClip is set
	GradientClip bool    `json:"gradient_clip"`
	ClipValue    float64 `json:"clip_value"`

	Gamma float64 `json:"gamma"` // Discount factor

	HiddenSizes []int                 `json:"hidden_sizes"`
	Activations []*network.Activation `json:"activations"`
	Solver      *solver.Solver        `json:"solver"`
}

// DefaultConfig returns the default DQN configuration for an
// environment with states described by obs and actions described by
// act.
func DefaultConfig(obs, act environment.Spec) (Config, error) {
	numActions, err := act.NumActions()
	if err != nil {
		return Config{}, fmt.Errorf("defaultConfig: %w", err)
	}

	adam, err := solver.NewDefaultAdam(1e-4)
	if err != nil {
		return Config{}, fmt.Errorf("defaultConfig: %w", err)
	}

	return Config{
		StateShape:        append([]int{}, obs.Shape...),
		NumActions:        numActions,
		TargetUpdateFreq:  1000,
		ReplayStartSize:   5000,
		BufferSize:        8000,
		BatchSize:         32,
		EpsilonStart:      1.0,
		EpsilonEnd:        0.05,
		EpsilonDecaySteps: 50000,
		GradientClip:      true,
		ClipValue:         1.0,
		Gamma:             0.99,
		HiddenSizes:       []int{256},
		Activations:       []*network.Activation{network.ReLU()},
		Solver:            adam,
	}, nil
}

// Features returns the number of elements in a single state
func (c Config) Features() int {
	features := 1
	for _, dim := range c.StateShape {
		features *= dim
	}
	return features
}

// ExpReplay returns the configuration of the agent's replay buffer
func (c Config) ExpReplay() expreplay.Config {
	return expreplay.Config{
		MaxReplayCapacity: c.BufferSize,
		MinReplayCapacity: c.ReplayStartSize,
		SampleSize:        c.BatchSize,
	}
}

// Validate checks a Config to ensure it is a valid configuration of a
// DQN agent.
func (c Config) Validate() error {
	if len(c.StateShape) == 0 || c.Features() < 1 {
		return fmt.Errorf("validate: invalid state shape %v", c.StateShape)
	}
	if c.NumActions < 1 {
		return fmt.Errorf("validate: need at least one action, have %v",
			c.NumActions)
	}

	if len(c.HiddenSizes) != len(c.Activations) {
		return fmt.Errorf("validate: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.HiddenSizes),
			len(c.Activations))
	}

	if c.TargetUpdateFreq < 1 {
		return fmt.Errorf("validate: target networks must be updated at "+
			"positive intervals \n\twant(>0) \n\thave(%v)",
			c.TargetUpdateFreq)
	}

	if err := c.ExpReplay().Validate(); err != nil {
		return err
	}

	if c.EpsilonStart < 0 || c.EpsilonStart > 1 || c.EpsilonEnd < 0 ||
		c.EpsilonEnd > 1 {
		return fmt.Errorf("validate: ε must be in [0, 1], have start %v "+
			"and end %v", c.EpsilonStart, c.EpsilonEnd)
	}
	if c.EpsilonDecaySteps < 0 {
		return fmt.Errorf("validate: ε decay steps must be >= 0")
	}

	if c.GradientClip && c.ClipValue <= 0 {
		return fmt.Errorf("validate: clip value must be > 0 when clipping "+
			"gradients, have %v", c.ClipValue)
	}

	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1], have %v",
			c.Gamma)
	}

	if c.Solver == nil || c.Solver.Solver == nil {
		return fmt.Errorf("validate: no solver specified")
	}

	return nil
}
