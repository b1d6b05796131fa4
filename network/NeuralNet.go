// Package network implements feed forward neural networks using
// Gorgonia. Networks are trained with a Gorgonia VM and can be
// evaluated outside of their computational graph with Gonum.
package network

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLP implements a multi-layered perceptron with one output per
// predicted value, e.g. one output per action for action values.
//
// MLP populates a gorgonia.ExprGraph with its forward pass on an input
// node of shape (batch, features). The struct does not have a VM of its
// own; an external VM is used to run the graph. To evaluate the network
// on arbitrary inputs without a VM, use Predict, or Snapshot to
// evaluate a frozen copy of the current weights.
type MLP struct {
	g          *G.ExprGraph
	layers     []*fcLayer
	input      *G.Node
	prediction *G.Node

	features  int
	outputs   int
	batchSize int

	learnables G.Nodes
}

// NewMLP creates and returns a new MLP in the graph g. The hiddenSizes
// parameter defines the number of nodes in each hidden layer and the
// activations parameter the activation of each hidden layer. A final
// linear layer is always added so that the network has outputs
// outputs. Every layer has a bias unit.
//
// Weights are initialized using rng.
func NewMLP(g *G.ExprGraph, features, batch, outputs int, hiddenSizes []int,
	activations []*Activation, rng *rand.Rand) (*MLP, error) {
	if len(hiddenSizes) != len(activations) {
		msg := "newMLP: invalid number of activations\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}
	if features < 1 || batch < 1 || outputs < 1 {
		return nil, fmt.Errorf("newMLP: features (%v), batch (%v) and "+
			"outputs (%v) must be positive", features, batch, outputs)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"))

	sizes := append(append([]int{}, hiddenSizes...), outputs)
	acts := append(append([]*Activation{}, activations...), Identity())

	layers := make([]*fcLayer, len(sizes))
	learnables := make(G.Nodes, 0, 2*len(sizes))
	in := features
	for i, size := range sizes {
		if size < 1 {
			return nil, fmt.Errorf("newMLP: layer %v must have positive "+
				"size, have %v", i, size)
		}
		layers[i] = newFCLayer(g, in, size, acts[i], rng, i)
		learnables = append(learnables, layers[i].Weights(),
			layers[i].Bias())
		in = size
	}

	net := &MLP{
		g:          g,
		layers:     layers,
		input:      input,
		features:   features,
		outputs:    outputs,
		batchSize:  batch,
		learnables: learnables,
	}

	prediction, err := net.fwd(input)
	if err != nil {
		msg := "newMLP: could not compute forward pass: %v"
		return nil, fmt.Errorf(msg, err)
	}
	net.prediction = prediction

	return net, nil
}

// fwd performs the forward pass of the MLP on the input node
func (m *MLP) fwd(input *G.Node) (*G.Node, error) {
	x := input
	var err error
	for _, layer := range m.layers {
		if x, err = layer.fwd(x); err != nil {
			return nil, err
		}
	}
	return x, nil
}

// Graph returns the computational graph of the MLP
func (m *MLP) Graph() *G.ExprGraph {
	return m.g
}

// BatchSize returns the batch size of the input node
func (m *MLP) BatchSize() int {
	return m.batchSize
}

// Features returns the number of features in a single input
func (m *MLP) Features() int {
	return m.features
}

// Outputs returns the number of outputs of the MLP
func (m *MLP) Outputs() int {
	return m.outputs
}

// SetInput sets the value of the input node before running the forward
// pass. The input is a batch of inputs in row major order.
func (m *MLP) SetInput(input []float64) error {
	if len(input) != m.features*m.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", m.features*m.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(m.input.Shape()...),
	)
	return G.Let(m.input, inputTensor)
}

// Prediction returns the output node of the MLP
func (m *MLP) Prediction() *G.Node {
	return m.prediction
}

// Learnables returns the learnable nodes in the MLP
func (m *MLP) Learnables() G.Nodes {
	return m.learnables
}

// Model returns the learnables nodes with their gradients.
func (m *MLP) Model() []G.ValueGrad {
	model := make([]G.ValueGrad, 0, len(m.learnables))
	for _, node := range m.learnables {
		model = append(model, node)
	}
	return model
}

// Predict evaluates the MLP's current weights on a batch of inputs in
// row major order, returning one row of outputs per input.
func (m *MLP) Predict(input []float64) (*mat.Dense, error) {
	s, err := m.snapshot(false)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return s.Predict(input)
}

// Snapshot returns a frozen copy of the MLP's current weights. Further
// training of the MLP does not change the Snapshot.
func (m *MLP) Snapshot() (*Snapshot, error) {
	return m.snapshot(true)
}

func (m *MLP) snapshot(clone bool) (*Snapshot, error) {
	layers := make([]denseLayer, len(m.layers))
	for i, layer := range m.layers {
		d, err := layer.dense(clone)
		if err != nil {
			return nil, fmt.Errorf("snapshot: layer %v: %w", i, err)
		}
		layers[i] = d
	}
	return &Snapshot{layers: layers, features: m.features}, nil
}

// Snapshot is a set of MLP weights evaluated with Gonum
type Snapshot struct {
	layers   []denseLayer
	features int
}

// Predict evaluates the Snapshot on a batch of inputs in row major
// order, returning one row of outputs per input.
func (s *Snapshot) Predict(input []float64) (*mat.Dense, error) {
	if len(input) == 0 || len(input)%s.features != 0 {
		return nil, fmt.Errorf("predict: input length %v is not a "+
			"multiple of %v features", len(input), s.features)
	}

	var x mat.Matrix = mat.NewDense(len(input)/s.features, s.features,
		input)
	var out *mat.Dense
	for _, layer := range s.layers {
		out = layer.predict(x)
		x = out
	}
	return out, nil
}
