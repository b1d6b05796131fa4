package tracker

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// WindowSize is the number of most recent episodic returns averaged
// over when reporting
const WindowSize = 100

// ScoreWindow holds the most recent episodic returns of a run. Once
// full, appending a return evicts the oldest return.
type ScoreWindow struct {
	scores []float64
	start  int // Index of the oldest score once full
	cap    int
}

// NewScoreWindow returns a new, empty ScoreWindow holding at most
// capacity returns
func NewScoreWindow(capacity int) *ScoreWindow {
	if capacity < 1 {
		panic(fmt.Sprintf("newScoreWindow: capacity must be positive, "+
			"have %v", capacity))
	}
	return &ScoreWindow{scores: make([]float64, 0, capacity), cap: capacity}
}

// Append adds the return of a finished episode to the window
func (s *ScoreWindow) Append(score float64) {
	if len(s.scores) < s.cap {
		s.scores = append(s.scores, score)
		return
	}
	s.scores[s.start] = score
	s.start = (s.start + 1) % s.cap
}

// Len returns the number of returns in the window
func (s *ScoreWindow) Len() int {
	return len(s.scores)
}

// Mean returns the mean of the returns in the window, or NaN if the
// window is empty
func (s *ScoreWindow) Mean() float64 {
	if len(s.scores) == 0 {
		return math.NaN()
	}
	return stat.Mean(s.scores, nil)
}

// Values returns the returns in the window, oldest first
func (s *ScoreWindow) Values() []float64 {
	values := make([]float64, 0, len(s.scores))
	values = append(values, s.scores[s.start:]...)
	return append(values, s.scores[:s.start]...)
}
