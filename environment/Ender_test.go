package environment

import (
	"testing"

	"golang.org/x/exp/rand"

	ts "github.com/samuelfneumann/atarirl/timestep"
)

func TestStepLimit(t *testing.T) {
	limit := NewStepLimit(3)
	for i := 0; i < 5; i++ {
		step := ts.New(ts.Mid, 0, nil, i)
		ended := limit.End(&step)
		if ended != (i >= 3) {
			t.Errorf("step %v: ended want(%v) have(%v)", i, i >= 3, ended)
		}
		if ended && !step.Last() {
			t.Errorf("step %v: step type want(Last) have(%v)", i,
				step.StepType)
		}
	}
}

func TestCategoricalStarter(t *testing.T) {
	starter, err := NewCategoricalStarter([]int{3, 1},
		rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}

	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		start := starter.Start()
		if start[0] < 0 || start[0] > 2 || start[1] != 0 {
			t.Fatalf("start %v out of bounds", start)
		}
		seen[start[0]] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected all 3 categories to be sampled, saw %v", seen)
	}

	if _, err := NewCategoricalStarter([]int{0}, rand.New(
		rand.NewSource(7))); err == nil {
		t.Error("expected error for empty category")
	}
}
