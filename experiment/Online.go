package experiment

import (
	"fmt"
	"log"

	"github.com/samuelfneumann/atarirl/agent"
	env "github.com/samuelfneumann/atarirl/environment"
	"github.com/samuelfneumann/atarirl/environment/wrappers"
	"github.com/samuelfneumann/atarirl/experiment/tracker"
	ts "github.com/samuelfneumann/atarirl/timestep"
)

// Cadence is the number of learning steps in an epoch
const Cadence = 5000

// State is a state of an Online experiment
type State int

const (
	EpisodeStart State = iota
	StepInProgress
	EpisodeEnd
	RunComplete
)

func (s State) String() string {
	switch s {
	case EpisodeStart:
		return "EpisodeStart"
	case StepInProgress:
		return "StepInProgress"
	case EpisodeEnd:
		return "EpisodeEnd"
	case RunComplete:
		return "RunComplete"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Reporter reports the average return of a run once per epoch
type Reporter interface {
	Report(epoch int, value float64, bufferLen int) error
}

// Online is an Experiment that trains an agent online, learning after
// each environmental step.
//
// Every Cadence learning steps, starting at the first learning step,
// the mean return of the last tracker.WindowSize episodes is reported
// along with the epoch, the number of learning steps integer divided by
// Cadence. The experiment ends directly after the report of epoch
// numEpoch, even if an episode is in progress.
type Online struct {
	env        env.Environment
	agent      agent.Agent
	reporter   Reporter
	numEpoch   int
	preprocess wrappers.Preprocessor
	logger     *log.Logger

	window *tracker.ScoreWindow
	state  State

	// Current episode
	step     ts.TimeStep
	score    float64
	complete bool

	episodes int
	steps    int
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. If preprocess is non-nil, each
// observation is preprocessed before the agent sees it.
func NewOnline(e env.Environment, a agent.Agent, r Reporter, numEpoch int,
	preprocess wrappers.Preprocessor) *Online {
	return &Online{
		env:        e,
		agent:      a,
		reporter:   r,
		numEpoch:   numEpoch,
		preprocess: preprocess,
		window:     tracker.NewScoreWindow(tracker.WindowSize),
		state:      EpisodeStart,
	}
}

// WithLogger sets a logger which logs a line per finished episode
func (o *Online) WithLogger(l *log.Logger) *Online {
	o.logger = l
	return o
}

// State returns the current state of the experiment
func (o *Online) State() State {
	return o.state
}

// Episodes returns the number of episodes finished so far
func (o *Online) Episodes() int {
	return o.episodes
}

// Steps returns the total number of environmental steps taken so far
func (o *Online) Steps() int {
	return o.steps
}

// Window returns the window of the most recent episodic returns
func (o *Online) Window() *tracker.ScoreWindow {
	return o.window
}

// Run runs the experiment until the epoch budget is reached. The
// environment is closed when Run returns, whether or not an error
// occurred.
func (o *Online) Run() (err error) {
	defer func() {
		if closeErr := o.env.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("run: could not close environment: %w",
				closeErr)
		}
	}()

	for !o.done() {
		switch o.state {
		case EpisodeStart:
			err = o.startEpisode()
		case StepInProgress:
			err = o.stepEpisode()
		case EpisodeEnd:
			o.endEpisode()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// done returns whether the experiment has finished
func (o *Online) done() bool {
	return o.state == RunComplete
}

func (o *Online) startEpisode() error {
	step, err := o.env.Reset()
	if err != nil {
		return fmt.Errorf("run: could not reset environment: %w", err)
	}
	o.step = step
	o.score = 0
	o.state = StepInProgress
	return nil
}

// stepEpisode takes a single step in the environment and a single
// learning step with the agent
func (o *Online) stepEpisode() error {
	state := o.step.Observation
	if o.preprocess != nil {
		processed, err := o.preprocess(state)
		if err != nil {
			return fmt.Errorf("step: could not preprocess observation: %w",
				err)
		}
		state = processed
	}

	action, err := o.agent.Action(state)
	if err != nil {
		return fmt.Errorf("step: could not select action: %w", err)
	}

	next, done, err := o.env.Step(action)
	if err != nil {
		return fmt.Errorf("step: %w", err)
	}
	o.steps++

	t := ts.NewTransition(state, action, next.Reward, done)
	if err := o.agent.Buffer().Push(t); err != nil {
		return fmt.Errorf("step: could not store transition: %w", err)
	}
	o.step = next
	o.score += next.Reward

	if err := o.agent.Train(); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	if err := o.checkReport(); err != nil {
		return err
	}

	if done {
		o.state = EpisodeEnd
	} else if o.complete {
		o.state = RunComplete
	}
	return nil
}

// checkReport reports the average return directly after the first
// learning step of each epoch
func (o *Online) checkReport() error {
	learnSteps := o.agent.LearnSteps()
	if learnSteps%Cadence != 1 {
		return nil
	}

	epoch := learnSteps / Cadence
	err := o.reporter.Report(epoch, o.window.Mean(), o.agent.Buffer().Len())
	if err != nil {
		return fmt.Errorf("step: %w", err)
	}
	if epoch == o.numEpoch {
		o.complete = true
	}
	return nil
}

func (o *Online) endEpisode() {
	o.window.Append(o.score)
	o.episodes++

	if o.logger != nil {
		o.logger.Printf("episode %d: return %v, steps %d, learn steps %d",
			o.episodes, o.score, o.step.Number, o.agent.LearnSteps())
	}

	if o.complete {
		o.state = RunComplete
	} else {
		o.state = EpisodeStart
	}
}
