// Package dqn implements the DQN algorithm over pixel states
package dqn

import (
	"fmt"

	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/atarirl/agent"
	"github.com/samuelfneumann/atarirl/expreplay"
	"github.com/samuelfneumann/atarirl/network"
)

var _ agent.Agent = &DQN{}

// DQN implements the deep Q-network algorithm with experience replay
// and a periodically updated target network, using the MSE loss.
//
// Actions are selected ε-greedily with respect to the current weights
// of trainNet. Update targets are computed with targetNet, a frozen
// copy of trainNet's weights that is refreshed every targetUpdateFreq
// learning steps.
type DQN struct {
	// Network whose weights are adapted. It takes in batches of inputs.
	trainNet   *network.MLP
	trainNetVM G.VM
	solver     G.Solver

	// Network that provides the update target
	targetNet        *network.Snapshot
	targetUpdateFreq int

	// Input nodes of the training graph. For the update:
	//
	// Q(s, a) <- Q(s, a) + α * (r + γ * max[Q(s', a')] - Q(s, a)) ∇Q(s, a)
	//
	// nextStateActionValues provides Q(s', a') for all a' in s' and is
	// computed by targetNet. discounts holds γ, or 0 where s is the last
	// state of an episode.
	selectedActions       *G.Node
	nextStateActionValues *G.Node
	rewards               *G.Node
	discounts             *G.Node

	behaviourPolicy *EGreedy
	replay          expreplay.ExperienceReplayer
	replayStartSize int

	numActions int
	features   int
	batchSize  int
	gamma      float64
	learnSteps int
}

// New creates and returns a new DQN agent. All randomness of the
// agent, weight initialization, exploration and replay sampling, is
// drawn from rng.
func New(config Config, rng *rand.Rand) (*DQN, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	batchSize := config.BatchSize
	numActions := config.NumActions
	features := config.Features()

	g := G.NewGraph()
	trainNet, err := network.NewMLP(g, features, batchSize, numActions,
		config.HiddenSizes, config.Activations, rng)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning network: %w",
			err)
	}

	// Create nodes to compute the update target: r + γ * max[Q(s', a')]
	nextStateActionValues := G.NewMatrix(g, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("targetActionVals"))
	rewards := G.NewVector(g, tensor.Float64, G.WithShape(batchSize),
		G.WithName("reward"))
	discounts := G.NewVector(g, tensor.Float64, G.WithShape(batchSize),
		G.WithName("discount"))

	updateTarget := G.Must(G.Max(nextStateActionValues, 1))
	updateTarget = G.Must(G.HadamardProd(updateTarget, discounts))
	updateTarget = G.Must(G.Add(updateTarget, rewards))

	// Actions selected in the sampled states as one-hot vectors, used to
	// pick out the value of the action taken
	selectedActions := G.NewMatrix(g, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("actionSelected"))
	selectedActionsValue := G.Must(G.HadamardProd(trainNet.Prediction(),
		selectedActions))
	selectedActionsValue = G.Must(G.Sum(selectedActionsValue, 1))

	// Mean squared TD error
	losses := G.Must(G.Sub(updateTarget, selectedActionsValue))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))

	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute gradient: %w", err)
	}

	trainNetVM := G.NewTapeMachine(g,
		G.BindDualValues(trainNet.Learnables()...))

	targetNet, err := trainNet.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("new: could not create target network: %w",
			err)
	}

	s := config.Solver
	if config.GradientClip {
		s = s.WithClip(config.ClipValue)
	}

	replay, err := config.ExpReplay().Create(features, rng)
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %w", err)
	}

	schedule := LinearDecay{
		Start: config.EpsilonStart,
		End:   config.EpsilonEnd,
		Steps: config.EpsilonDecaySteps,
	}

	return &DQN{
		trainNet:              trainNet,
		trainNetVM:            trainNetVM,
		solver:                s.Solver,
		targetNet:             targetNet,
		targetUpdateFreq:      config.TargetUpdateFreq,
		selectedActions:       selectedActions,
		nextStateActionValues: nextStateActionValues,
		rewards:               rewards,
		discounts:             discounts,
		behaviourPolicy:       NewEGreedy(schedule, rng),
		replay:                replay,
		replayStartSize:       config.ReplayStartSize,
		numActions:            numActions,
		features:              features,
		batchSize:             batchSize,
		gamma:                 config.Gamma,
	}, nil
}

// Action selects an action in state ε-greedily
func (d *DQN) Action(state tensor.Tensor) (int, error) {
	data, err := d.stateData(state)
	if err != nil {
		return 0, fmt.Errorf("action: %w", err)
	}

	actionValues, err := d.trainNet.Predict(data)
	if err != nil {
		return 0, fmt.Errorf("action: %w", err)
	}

	return d.behaviourPolicy.Select(actionValues.RawRowView(0)), nil
}

// Buffer returns the agent's experience replay buffer
func (d *DQN) Buffer() agent.Buffer {
	return d.replay
}

// LearnSteps returns the number of gradient steps taken so far
func (d *DQN) LearnSteps() int {
	return d.learnSteps
}

// Epsilon returns the current exploration rate
func (d *DQN) Epsilon() float64 {
	return d.behaviourPolicy.Epsilon()
}

// Train performs a single gradient step on a batch sampled from the
// replay buffer. No step is taken until the replay buffer holds the
// replay start size number of transitions.
func (d *DQN) Train() error {
	if d.replay.Len() < d.replayStartSize {
		return nil
	}

	batch, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	// Predict the action values in the next states with the target net
	nextValues, err := d.targetNet.Predict(batch.NextStates)
	if err != nil {
		return fmt.Errorf("train: could not compute next state-action "+
			"values: %w", err)
	}
	nextData := make([]float64, 0, d.batchSize*d.numActions)
	for i := 0; i < d.batchSize; i++ {
		nextData = append(nextData, nextValues.RawRowView(i)...)
	}

	actions := make([]float64, d.batchSize*d.numActions)
	discounts := make([]float64, d.batchSize)
	for i := 0; i < d.batchSize; i++ {
		actions[i*d.numActions+batch.Actions[i]] = 1.0
		discounts[i] = d.gamma * batch.Masks[i]
	}

	if err := d.trainNet.SetInput(batch.States); err != nil {
		return fmt.Errorf("train: could not set trainNet input: %w", err)
	}
	lets := []struct {
		node  *G.Node
		value tensor.Tensor
	}{
		{d.selectedActions, d.matrix(actions, d.numActions)},
		{d.nextStateActionValues, d.matrix(nextData, d.numActions)},
		{d.rewards, tensor.New(tensor.WithBacking(batch.Rewards),
			tensor.WithShape(d.batchSize))},
		{d.discounts, tensor.New(tensor.WithBacking(discounts),
			tensor.WithShape(d.batchSize))},
	}
	for _, l := range lets {
		if err := G.Let(l.node, l.value); err != nil {
			return fmt.Errorf("train: could not set %v: %w", l.node.Name(),
				err)
		}
	}

	// Run the learning step
	if err := d.trainNetVM.RunAll(); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if err := d.solver.Step(d.trainNet.Model()); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	d.trainNetVM.Reset()
	d.learnSteps++

	// Update the target network by setting its weights to the newly
	// learned weights
	if d.learnSteps%d.targetUpdateFreq == 0 {
		if d.targetNet, err = d.trainNet.Snapshot(); err != nil {
			return fmt.Errorf("train: could not update target network: %w",
				err)
		}
	}

	return nil
}

// Close releases the agent's computational graph
func (d *DQN) Close() error {
	return d.trainNetVM.Close()
}

func (d *DQN) matrix(data []float64, cols int) tensor.Tensor {
	return tensor.New(tensor.WithBacking(data),
		tensor.WithShape(len(data)/cols, cols))
}

// stateData returns the flattened data of a state
func (d *DQN) stateData(state tensor.Tensor) ([]float64, error) {
	if state == nil {
		return nil, fmt.Errorf("nil state")
	}
	if dense, ok := state.(*tensor.Dense); ok && dense.IsMaterializable() {
		state = dense.Materialize()
	}

	data, ok := state.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("state must have dtype float64, have %v",
			state.Dtype())
	}
	if len(data) != d.features {
		return nil, fmt.Errorf("state must have %v features, have %v "+
			"(shape %v)", d.features, len(data), state.Shape())
	}
	return data, nil
}
