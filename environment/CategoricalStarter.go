package environment

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Starter samples the starting configuration of an episode
type Starter interface {
	Start() []int
}

// CategoricalStarter returns starting configurations sampled from a
// multi-dimensional uniform categorical distribution. Dimension i is
// sampled from (0, 1, 2, ... bounds[i]-1).
type CategoricalStarter struct {
	rand []distuv.Categorical
}

// NewCategoricalStarter returns a new CategoricalStarter, sampling
// dimension i from (0, 1, 2, ... bounds[i]-1) using rng
func NewCategoricalStarter(bounds []int, rng *rand.Rand) (*CategoricalStarter,
	error) {
	dists := make([]distuv.Categorical, len(bounds))
	for i := range dists {
		if bounds[i] < 1 {
			return nil, fmt.Errorf("newCategoricalStarter: bound %v must be "+
				"positive, have %v", i, bounds[i])
		}

		// Create the weights for the uniform categorical distribution
		weights := make([]float64, bounds[i])
		for j := range weights {
			weights[j] = 1.0 / float64(len(weights))
		}

		dists[i] = distuv.NewCategorical(weights, rng)
	}

	return &CategoricalStarter{dists}, nil
}

// Start returns a starting configuration
func (c *CategoricalStarter) Start() []int {
	start := make([]int, len(c.rand))
	for i := range start {
		start[i] = int(c.rand[i].Rand())
	}
	return start
}
