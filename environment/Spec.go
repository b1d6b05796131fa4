package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an acion or an observation
type SpecType int

const (
	Action SpecType = iota
	Observation
)

func (s SpecType) String() string {
	if s == Action {
		return "Action"
	}
	return "Observation"
}

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action or an observation in an environment.
//
// Shape is the tensor shape of a single value, e.g. (210, 160, 3) for
// an Atari frame or (1) for a discrete action. The bounds hold either
// a single element, which bounds every element of the value, or one
// element per element of the value.
type Spec struct {
	Shape      []int
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations, etc.). The cardinality
// arguments describes whether the values that the spec describes are
// continuous or discrete.
func NewSpec(shape []int, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if lowerBound.Len() != upperBound.Len() {
		panic(fmt.Sprintf("lower bounds length %v must match upper bounds "+
			"length %v", lowerBound.Len(), upperBound.Len()))
	}
	size := shapeLen(shape)
	if lowerBound.Len() != 1 && lowerBound.Len() != size {
		panic(fmt.Sprintf("bounds length %v must be 1 or match shape "+
			"length %v", lowerBound.Len(), size))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// NewDiscreteActionSpec returns the Spec of n actions enumerated
// from 0 to n-1
func NewDiscreteActionSpec(n int) Spec {
	if n < 1 {
		panic(fmt.Sprintf("need at least one action, have %v", n))
	}
	low := mat.NewVecDense(1, nil)
	high := mat.NewVecDense(1, []float64{float64(n - 1)})

	return NewSpec([]int{1}, Action, low, high, Discrete)
}

// NewPixelSpec returns the Spec of (height, width, channels) frames
// with values in [0, 255]
func NewPixelSpec(height, width, channels int) Spec {
	low := mat.NewVecDense(1, []float64{0})
	high := mat.NewVecDense(1, []float64{255})

	return NewSpec([]int{height, width, channels}, Observation, low, high,
		Continuous)
}

// Len returns the number of elements in a single value described by
// the Spec
func (s Spec) Len() int {
	return shapeLen(s.Shape)
}

// NumActions returns the number of actions described by a discrete
// action Spec
func (s Spec) NumActions() (int, error) {
	if s.Type != Action || s.Cardinality != Discrete {
		return 0, fmt.Errorf("numActions: spec is not a discrete action "+
			"spec (type %v, cardinality %v)", s.Type, s.Cardinality)
	}
	if s.LowerBound.Len() != 1 {
		return 0, fmt.Errorf("numActions: actions must be 1-dimensional")
	}
	if s.LowerBound.AtVec(0) != 0.0 {
		return 0, fmt.Errorf("numActions: actions must be enumerated " +
			"starting from 0")
	}
	return int(s.UpperBound.AtVec(0)) + 1, nil
}

func shapeLen(shape []int) int {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	return size
}
