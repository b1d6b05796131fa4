package expreplay

import (
	"testing"

	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/atarirl/timestep"
)

// state returns a 2-feature state whose features both equal v
func state(v float64) tensor.Tensor {
	return tensor.New(tensor.WithShape(2), tensor.WithBacking([]float64{v, v}))
}

func TestPushFifoEviction(t *testing.T) {
	const capacity = 5
	replay, err := New(NewNewestSelector(1), 1, capacity, 2)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 12; i++ {
		if err := replay.Push(timestep.NewTransition(state(float64(i)), i,
			float64(i), false)); err != nil {
			t.Fatal(err)
		}
		want := i + 1
		if want > capacity {
			want = capacity
		}
		if replay.Len() != want {
			t.Errorf("len want(%v) have(%v)", want, replay.Len())
		}
	}

	// Oldest stored transitions should be 7..11
	c := replay.(*fifoCache)
	for i := 0; i < capacity; i++ {
		if c.at(i).Action != 7+i {
			t.Errorf("index %v: action want(%v) have(%v)", i, 7+i,
				c.at(i).Action)
		}
	}
}

func TestSampleNextState(t *testing.T) {
	replay, err := New(NewNewestSelector(2), 2, 10, 2)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		done := i == 3
		err := replay.Push(timestep.NewTransition(state(float64(i)), i, 1.0,
			done))
		if err != nil {
			t.Fatal(err)
		}
	}

	batch, err := replay.Sample()
	if err != nil {
		t.Fatal(err)
	}
	if batch.Len() != 2 {
		t.Fatalf("batch len want(2) have(%v)", batch.Len())
	}

	// The newest transition cannot be sampled, so the newest sample is
	// transition 2 whose successor is transition 3
	wantActions := []int{2, 1}
	for i, want := range wantActions {
		if batch.Actions[i] != want {
			t.Errorf("action %v: want(%v) have(%v)", i, want,
				batch.Actions[i])
		}
		if batch.States[2*i] != float64(want) {
			t.Errorf("state %v: want(%v) have(%v)", i, want,
				batch.States[2*i])
		}
		if batch.NextStates[2*i] != float64(want+1) {
			t.Errorf("next state %v: want(%v) have(%v)", i, want+1,
				batch.NextStates[2*i])
		}
		if batch.Masks[i] != 1.0 {
			t.Errorf("mask %v: want(1) have(%v)", i, batch.Masks[i])
		}
	}
}

func TestSampleErrors(t *testing.T) {
	config := Config{MaxReplayCapacity: 10, MinReplayCapacity: 3,
		SampleSize: 4}
	replay, err := config.Create(2, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := replay.Sample(); !IsEmptyBuffer(err) {
		t.Errorf("empty buffer: want empty error, have %v", err)
	}

	replay.Push(timestep.NewTransition(state(0), 0, 0, false))
	replay.Push(timestep.NewTransition(state(1), 1, 0, false))
	if _, err := replay.Sample(); !IsInsufficientSamples(err) {
		t.Errorf("below minimum: want insufficient error, have %v", err)
	}

	replay.Push(timestep.NewTransition(state(2), 2, 0, false))
	batch, err := replay.Sample()
	if err != nil {
		t.Fatalf("at minimum: %v", err)
	}
	if batch.Len() != 4 {
		t.Errorf("batch len want(4) have(%v)", batch.Len())
	}
	for _, a := range batch.Actions {
		if a != 0 && a != 1 {
			t.Errorf("sampled newest or unknown transition %v", a)
		}
	}
}

func TestPushIncompatibleState(t *testing.T) {
	replay, err := New(NewNewestSelector(1), 1, 4, 3)
	if err != nil {
		t.Fatal(err)
	}

	err = replay.Push(timestep.NewTransition(state(1), 0, 0, false))
	if !IsIncompatibleState(err) {
		t.Errorf("wrong feature count: want incompatible error, have %v", err)
	}
	err = replay.Push(timestep.NewTransition(nil, 0, 0, false))
	if !IsIncompatibleState(err) {
		t.Errorf("nil state: want incompatible error, have %v", err)
	}
	if replay.Len() != 0 {
		t.Errorf("rejected transitions stored: len %v", replay.Len())
	}
}

func TestConfigValidate(t *testing.T) {
	bad := []Config{
		{MaxReplayCapacity: 10, MinReplayCapacity: 0, SampleSize: 1},
		{MaxReplayCapacity: 1, MinReplayCapacity: 1, SampleSize: 1},
		{MaxReplayCapacity: 10, MinReplayCapacity: 11, SampleSize: 1},
		{MaxReplayCapacity: 10, MinReplayCapacity: 1, SampleSize: 0},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("%+v: expected error", c)
		}
	}

	good := Config{MaxReplayCapacity: 8000, MinReplayCapacity: 5000,
		SampleSize: 32}
	if err := good.Validate(); err != nil {
		t.Errorf("%+v: %v", good, err)
	}
}
