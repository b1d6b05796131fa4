package network

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node // (inputs, outputs)
	bias    *G.Node // (1, outputs)
	act     *Activation
}

// newFCLayer adds a new fully connected layer to the graph g. Weights
// are initialized with Glorot uniform initialization using rng and
// biases are initialized to zero.
func newFCLayer(g *G.ExprGraph, inputs, outputs int, act *Activation,
	rng *rand.Rand, index int) *fcLayer {
	bound := math.Sqrt(6.0 / float64(inputs+outputs))
	dist := distuv.Uniform{Min: -bound, Max: bound, Src: rng}

	weights := make([]float64, inputs*outputs)
	for i := range weights {
		weights[i] = dist.Rand()
	}

	w := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(inputs, outputs),
		G.WithName(fmt.Sprintf("L%dW", index)),
		G.WithValue(tensor.New(
			tensor.WithShape(inputs, outputs),
			tensor.WithBacking(weights),
		)),
	)
	b := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, outputs),
		G.WithName(fmt.Sprintf("L%dB", index)),
		G.WithValue(tensor.New(
			tensor.WithShape(1, outputs),
			tensor.WithBacking(make([]float64, outputs)),
		)),
	)

	return &fcLayer{weights: w, bias: b, act: act}
}

// Fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x = G.Must(G.Mul(x, f.Weights()))

	// Broadcast the bias weights to all samples along the batch
	// dimension
	x = G.Must(G.BroadcastAdd(x, f.Bias(), nil, []byte{0}))

	return f.Activation().fwd(x)
}

// dense returns the current weights and bias of the layer as a
// denseLayer. If clone is true, the values are copied, otherwise the
// denseLayer shares its data with the layer.
func (f *fcLayer) dense(clone bool) (denseLayer, error) {
	inputs, outputs := f.weights.Shape()[0], f.weights.Shape()[1]

	weights, ok := f.weights.Value().Data().([]float64)
	if !ok {
		return denseLayer{}, fmt.Errorf("dense: weights must be float64")
	}
	bias, ok := f.bias.Value().Data().([]float64)
	if !ok {
		return denseLayer{}, fmt.Errorf("dense: bias must be float64")
	}

	if clone {
		weights = append([]float64(nil), weights...)
		bias = append([]float64(nil), bias...)
	}

	return denseLayer{
		weights: mat.NewDense(inputs, outputs, weights),
		bias:    bias,
		act:     f.act,
	}, nil
}

// Activation returns the activation of the layer
func (f *fcLayer) Activation() *Activation {
	return f.act
}

// Bias returns the bias node of the layer
func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

// Weights returns the weight node of the layer
func (f *fcLayer) Weights() *G.Node {
	return f.weights
}

// denseLayer is a fully connected layer evaluated outside of a
// computational graph
type denseLayer struct {
	weights *mat.Dense
	bias    []float64
	act     *Activation
}

// predict computes the layer's output for a batch of inputs, one
// input per row
func (d denseLayer) predict(x mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Mul(x, d.weights)

	rows, cols := out.Dims()
	raw := out.RawMatrix()
	for i := 0; i < rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+cols]
		for j := range row {
			row[j] = d.act.apply(row[j] + d.bias[j])
		}
	}
	return &out
}
