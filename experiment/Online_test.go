package experiment

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"gorgonia.org/tensor"

	"github.com/samuelfneumann/atarirl/agent"
	"github.com/samuelfneumann/atarirl/environment"
	"github.com/samuelfneumann/atarirl/environment/wrappers"
	ts "github.com/samuelfneumann/atarirl/timestep"
)

// fixedEnv is an environment whose episodes last episodeLen steps, with
// a reward of 1 on each step
type fixedEnv struct {
	episodeLen int
	t          int
	closed     int
	stepErrAt  int // Step at which Step fails, 0 if never
	steps      int
}

func (f *fixedEnv) obs() tensor.Tensor {
	return tensor.New(tensor.WithShape(6, 5, 3),
		tensor.WithBacking(make([]float64, 6*5*3)))
}

func (f *fixedEnv) Reset() (ts.TimeStep, error) {
	f.t = 0
	return ts.New(ts.First, 0, f.obs(), 0), nil
}

func (f *fixedEnv) Step(action int) (ts.TimeStep, bool, error) {
	f.steps++
	if f.steps == f.stepErrAt {
		return ts.TimeStep{}, false, errors.New("emulator crashed")
	}
	f.t++
	done := f.t == f.episodeLen
	stepType := ts.Mid
	if done {
		stepType = ts.Last
	}
	return ts.New(stepType, 1.0, f.obs(), f.t), done, nil
}

func (f *fixedEnv) ObservationSpec() environment.Spec {
	return environment.NewPixelSpec(6, 5, 3)
}

func (f *fixedEnv) ActionSpec() environment.Spec {
	return environment.NewDiscreteActionSpec(2)
}

func (f *fixedEnv) Close() error {
	f.closed++
	return nil
}

type countingBuffer struct {
	pushed []ts.Transition
}

func (c *countingBuffer) Push(t ts.Transition) error {
	c.pushed = append(c.pushed, t)
	return nil
}

func (c *countingBuffer) Len() int {
	return len(c.pushed)
}

// eagerAgent learns on every call to Train
type eagerAgent struct {
	buffer     countingBuffer
	trains     int
	learnSteps int
	trainErrAt int // Train call which fails, 0 if never
	states     []tensor.Tensor
}

func (e *eagerAgent) Action(state tensor.Tensor) (int, error) {
	e.states = append(e.states, state)
	return len(e.states) % 2, nil
}

func (e *eagerAgent) Buffer() agent.Buffer { return &e.buffer }

func (e *eagerAgent) Train() error {
	e.trains++
	if e.trains == e.trainErrAt {
		return errors.New("diverged")
	}
	e.learnSteps++
	return nil
}

func (e *eagerAgent) LearnSteps() int { return e.learnSteps }

type report struct {
	epoch     int
	value     float64
	bufferLen int
}

type reportRecorder struct {
	reports []report
}

func (r *reportRecorder) Report(epoch int, value float64, bufferLen int) error {
	r.reports = append(r.reports, report{epoch, value, bufferLen})
	return nil
}

func TestOnlineSingleEpoch(t *testing.T) {
	e := &fixedEnv{episodeLen: 7}
	a := &eagerAgent{}
	r := &reportRecorder{}

	exp := NewOnline(e, a, r, 1, nil)
	if err := exp.Run(); err != nil {
		t.Fatal(err)
	}

	if a.trains != Cadence+1 {
		t.Errorf("train calls want(%v) have(%v)", Cadence+1, a.trains)
	}
	if a.buffer.Len() != Cadence+1 || exp.Steps() != Cadence+1 {
		t.Errorf("pushes want(%v) have(%v), steps have(%v)", Cadence+1,
			a.buffer.Len(), exp.Steps())
	}
	if e.closed != 1 {
		t.Errorf("close calls want(1) have(%v)", e.closed)
	}
	if exp.State() != RunComplete {
		t.Errorf("state want(%v) have(%v)", RunComplete, exp.State())
	}

	// The run ends 3 steps into episode 715
	if exp.Episodes() != 714 {
		t.Errorf("episodes want(714) have(%v)", exp.Episodes())
	}

	if len(r.reports) != 2 {
		t.Fatalf("reports want(2) have(%v)", len(r.reports))
	}
	first, last := r.reports[0], r.reports[1]
	if first.epoch != 0 || !math.IsNaN(first.value) || first.bufferLen != 1 {
		t.Errorf("unexpected first report %+v", first)
	}
	if last.epoch != 1 || last.value != 7 || last.bufferLen != Cadence+1 {
		t.Errorf("unexpected last report %+v", last)
	}
}

func TestOnlineTransitions(t *testing.T) {
	e := &fixedEnv{episodeLen: 3}
	a := &eagerAgent{}

	// Epoch 0 is reported after the first learning step
	exp := NewOnline(e, a, &reportRecorder{}, 0, wrappers.Atari)
	if err := exp.Run(); err != nil {
		t.Fatal(err)
	}
	if a.buffer.Len() != 1 || e.closed != 1 || exp.Episodes() != 0 {
		t.Errorf("pushes want(1) have(%v), closes want(1) have(%v), "+
			"episodes want(0) have(%v)", a.buffer.Len(), e.closed,
			exp.Episodes())
	}

	state := a.buffer.pushed[0].State
	shape := state.Shape()
	if len(shape) != 3 || shape[0] != wrappers.FrameChannels ||
		shape[1] != wrappers.FrameSize || shape[2] != wrappers.FrameSize {
		t.Errorf("pushed state shape want(4, 84, 84) have(%v)", shape)
	}
	if state != a.states[0] {
		t.Error("pushed state is not the state the action was selected in")
	}
}

func TestOnlineDoneMask(t *testing.T) {
	e := &fixedEnv{episodeLen: 4}
	a := &eagerAgent{}
	exp := NewOnline(e, a, &reportRecorder{}, 1, nil)
	if err := exp.Run(); err != nil {
		t.Fatal(err)
	}

	for i, tr := range a.buffer.pushed {
		want := 1.0
		if (i+1)%4 == 0 {
			want = 0.0
		}
		if tr.DoneMask != want {
			t.Fatalf("transition %v: done mask want(%v) have(%v)", i, want,
				tr.DoneMask)
		}
		if tr.Reward != 1 {
			t.Fatalf("transition %v: reward want(1) have(%v)", i, tr.Reward)
		}
	}
}

func TestOnlineErrorsCloseEnvironment(t *testing.T) {
	e := &fixedEnv{episodeLen: 2}
	a := &eagerAgent{trainErrAt: 3}
	exp := NewOnline(e, a, &reportRecorder{}, 1, nil)
	if err := exp.Run(); err == nil {
		t.Error("expected train error to be returned")
	}
	if e.closed != 1 {
		t.Errorf("close calls want(1) have(%v)", e.closed)
	}
	// The partial episode is not recorded
	if exp.Episodes() != 1 || exp.Window().Len() != 1 {
		t.Errorf("episodes want(1) have(%v)", exp.Episodes())
	}

	e = &fixedEnv{episodeLen: 2, stepErrAt: 5}
	exp = NewOnline(e, &eagerAgent{}, &reportRecorder{}, 1, nil)
	if err := exp.Run(); err == nil {
		t.Error("expected step error to be returned")
	}
	if e.closed != 1 {
		t.Errorf("close calls want(1) have(%v)", e.closed)
	}

	// Frames must have 3 channels
	e = &fixedEnv{episodeLen: 2}
	bad := func(tensor.Tensor) (tensor.Tensor, error) {
		return wrappers.Atari(tensor.New(tensor.WithShape(2, 2, 1),
			tensor.WithBacking(make([]float64, 4))))
	}
	exp = NewOnline(e, &eagerAgent{}, &reportRecorder{}, 1, bad)
	if err := exp.Run(); err == nil {
		t.Error("expected preprocessing error to be returned")
	}
	if e.closed != 1 {
		t.Errorf("close calls want(1) have(%v)", e.closed)
	}
}

func TestLogDir(t *testing.T) {
	now := time.Date(2021, time.March, 4, 5, 6, 7, 0, time.Local)
	dir := LogDir("./logs", "Pong-v4", now)
	want := filepath.Join("logs", "dqn", "Pong-v4", "20210304_050607") +
		string(filepath.Separator)
	if dir != want {
		t.Errorf("log dir want(%v) have(%v)", want, dir)
	}

	c := Config{EnvID: "ALE/Freeway-v5", Epochs: 1, LogRoot: t.TempDir()}
	made, err := c.MakeLogDir(now)
	if err != nil {
		t.Fatal(err)
	}
	if again, err := c.MakeLogDir(now); err != nil || again != made {
		t.Errorf("makeLogDir is not idempotent: %v %v", again, err)
	}
	if filepath.Base(filepath.Dir(filepath.Clean(made))) != "Freeway-v5" {
		t.Errorf("unexpected log dir %v", made)
	}
}
