package wrappers

import (
	"testing"

	"gorgonia.org/tensor"

	"github.com/samuelfneumann/atarirl/environment"
	"github.com/samuelfneumann/atarirl/timestep"
)

// endless is an environment whose episodes never end
type endless struct {
	t int
}

func (e *endless) Reset() (timestep.TimeStep, error) {
	e.t = 0
	return timestep.New(timestep.First, 0, e.frame(), 0), nil
}

func (e *endless) Step(int) (timestep.TimeStep, bool, error) {
	e.t++
	return timestep.New(timestep.Mid, 1, e.frame(), e.t), false, nil
}

func (e *endless) frame() tensor.Tensor {
	return tensor.New(tensor.WithShape(2, 2, 3),
		tensor.WithBacking(make([]float64, 12)))
}

func (e *endless) ObservationSpec() environment.Spec {
	return environment.NewPixelSpec(2, 2, 3)
}

func (e *endless) ActionSpec() environment.Spec {
	return environment.NewDiscreteActionSpec(1)
}

func (e *endless) Close() error { return nil }

func TestTimeLimit(t *testing.T) {
	env := NewTimeLimit(&endless{}, 4)
	for episode := 0; episode < 2; episode++ {
		if _, err := env.Reset(); err != nil {
			t.Fatal(err)
		}
		for i := 1; i <= 4; i++ {
			step, done, err := env.Step(0)
			if err != nil {
				t.Fatal(err)
			}
			if done != (i == 4) || step.Last() != (i == 4) {
				t.Errorf("episode %v step %v: done want(%v) have(%v)",
					episode, i, i == 4, done)
			}
		}
	}
}
