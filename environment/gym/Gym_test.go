package gym_test

import (
	"testing"

	"github.com/samuelfneumann/atarirl/environment/gym"
	"github.com/samuelfneumann/atarirl/environment/wrappers"
)

func TestAtari(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test requiring the Atari emulator")
	}
	defer gym.Finalize()

	envs := []string{"Pong-v4", "SpaceInvaders-v4"}
	for _, envName := range envs {
		env, err := gym.New(envName, nil, 123)
		if err != nil {
			t.Errorf("env %v: %v", envName, err)
			continue
		}

		step, err := env.Reset()
		if err != nil {
			t.Fatalf("env %v: %v", envName, err)
		}
		if !step.First() {
			t.Errorf("env %v: reset should return a first timestep", envName)
		}

		n, err := env.ActionSpec().NumActions()
		if err != nil {
			t.Fatal(err)
		}

		// Take a bunch of steps in the environment to ensure frames can
		// be preprocessed
		for i := 0; i < 15; i++ {
			next, done, err := env.Step(i % n)
			if err != nil {
				t.Fatalf("env %v: %v", envName, err)
			}
			if _, err := wrappers.AtariFrame(next.Observation); err != nil {
				t.Errorf("env %v: %v", envName, err)
			}
			if done {
				if _, err := env.Reset(); err != nil {
					t.Errorf("env %v: %v", envName, err)
				}
			}
		}

		if _, _, err := env.Step(n); err == nil {
			t.Errorf("env %v: expected error for out of range action",
				envName)
		}

		if err := env.Close(); err != nil {
			t.Error(err)
		}
	}
}
