package tracker

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Plot saves a line plot of the scalars logged under tag to the image
// file out. The image format is determined by the extension of out.
// NaN values are not plotted.
func Plot(scalars []Scalar, tag, out string) error {
	series := Series(scalars, tag)

	points := make(plotter.XYs, 0, len(series))
	for _, s := range series {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			continue
		}
		points = append(points, plotter.XY{X: float64(s.Step), Y: s.Value})
	}
	if len(points) == 0 {
		return fmt.Errorf("plot: no values logged under tag %q", tag)
	}

	p := plot.New()
	p.Title.Text = tag
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "average return"

	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	line.Color = plotutil.Color(0)
	p.Add(line)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, out); err != nil {
		return fmt.Errorf("plot: could not save plot: %w", err)
	}
	return nil
}
