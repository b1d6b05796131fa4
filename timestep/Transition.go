package timestep

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Transition is the record handed to an agent's experience store once
// per environment step. The successor state is not stored; it is the
// State of the next Transition pushed, unless DoneMask is 0.
type Transition struct {
	State    tensor.Tensor
	Action   int
	Reward   float64
	DoneMask float64 // 0.0 if the episode terminated on this step
}

// NewTransition returns a new Transition. The done mask is derived
// from whether the step ended the episode.
func NewTransition(state tensor.Tensor, action int, reward float64,
	done bool) Transition {
	return Transition{
		State:    state,
		Action:   action,
		Reward:   reward,
		DoneMask: DoneMask(done),
	}
}

// DoneMask returns 0.0 for a terminal step and 1.0 otherwise
func DoneMask(done bool) float64 {
	if done {
		return 0.0
	}
	return 1.0
}

// Terminal returns whether the Transition ended its episode
func (t Transition) Terminal() bool {
	return t.DoneMask == 0.0
}

func (t Transition) String() string {
	str := "Transition | Action: %v  |  Reward:  %.2f  |  Mask: %.1f"
	return fmt.Sprintf(str, t.Action, t.Reward, t.DoneMask)
}
