package tracker

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestScoreWindowEviction(t *testing.T) {
	w := NewScoreWindow(WindowSize)
	for i := 0; i < 150; i++ {
		w.Append(float64(i))
	}

	if w.Len() != WindowSize {
		t.Fatalf("len want(%v) have(%v)", WindowSize, w.Len())
	}
	values := w.Values()
	for i, v := range values {
		if v != float64(i+50) {
			t.Fatalf("value %v want(%v) have(%v)", i, i+50, v)
		}
	}
	if mean := w.Mean(); mean != 99.5 {
		t.Errorf("mean want(99.5) have(%v)", mean)
	}
}

func TestScoreWindowEmpty(t *testing.T) {
	w := NewScoreWindow(3)
	if !math.IsNaN(w.Mean()) {
		t.Errorf("mean of empty window want(NaN) have(%v)", w.Mean())
	}
	if len(w.Values()) != 0 {
		t.Errorf("values of empty window want(none) have(%v)", w.Values())
	}

	w.Append(-21)
	if w.Mean() != -21 {
		t.Errorf("mean want(-21) have(%v)", w.Mean())
	}
}

type recorder struct {
	tags   []string
	steps  []int
	values []float64
}

func (r *recorder) AddScalar(tag string, step int, value float64) error {
	r.tags = append(r.tags, tag)
	r.steps = append(r.steps, step)
	r.values = append(r.values, value)
	return nil
}

func TestReporter(t *testing.T) {
	sink := &recorder{}
	var out bytes.Buffer
	r := NewReporter("ALE/Pong-v5", sink, &out)

	if r.Tag() != "Pong-v5_average_return" {
		t.Errorf("tag want(Pong-v5_average_return) have(%v)", r.Tag())
	}
	if NewReporter("Pong-v4", nil, nil).Tag() != "Pong-v4_average_return" {
		t.Error("tag of env id without a slash is incorrect")
	}

	if err := r.Report(0, math.NaN(), 5000); err != nil {
		t.Fatal(err)
	}
	if err := r.Report(3, -20.5, 8000); err != nil {
		t.Fatal(err)
	}

	want := "epoch: 0, average_return: NaN, buffer_capacity: 5000\n" +
		"epoch: 3, average_return: -20.500000, buffer_capacity: 8000\n"
	if out.String() != want {
		t.Errorf("output want(%q) have(%q)", want, out.String())
	}

	if len(sink.steps) != 2 || sink.steps[1] != 3 || sink.values[1] != -20.5 {
		t.Errorf("unexpected scalars logged: %+v", sink)
	}
	if !math.IsNaN(sink.values[0]) {
		t.Errorf("first value want(NaN) have(%v)", sink.values[0])
	}
}

func TestGobWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := OpenScalarWriter(dir, "run-1")
	if err != nil {
		t.Fatal(err)
	}

	r := NewReporter("Pong-v4", w, nil)
	for epoch, v := range []float64{math.NaN(), -21, -19.5} {
		if err := r.Report(epoch, v, 100); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.AddScalar("other", 7, 1); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if err := w.AddScalar("other", 8, 1); err == nil {
		t.Error("expected error adding a scalar to a closed writer")
	}

	header, scalars, err := LoadScalars(dir)
	if err != nil {
		t.Fatal(err)
	}
	if header.RunID != "run-1" {
		t.Errorf("run id want(run-1) have(%v)", header.RunID)
	}
	if len(scalars) != 4 {
		t.Fatalf("scalars want(4) have(%v)", len(scalars))
	}

	series := Series(scalars, r.Tag())
	if len(series) != 3 {
		t.Fatalf("series length want(3) have(%v)", len(series))
	}
	if !math.IsNaN(series[0].Value) || series[2].Value != -19.5 ||
		series[2].Step != 2 {
		t.Errorf("unexpected series %+v", series)
	}
	if tags := Tags(scalars); len(tags) != 2 || tags[1] != "other" {
		t.Errorf("unexpected tags %v", tags)
	}
}

func TestPlotAndExport(t *testing.T) {
	dir := t.TempDir()
	scalars := []Scalar{
		{Tag: "a", Step: 0, Value: math.NaN()},
		{Tag: "a", Step: 1, Value: -20},
		{Tag: "a", Step: 2, Value: -18},
	}

	png := filepath.Join(dir, "curve.png")
	if err := Plot(scalars, "a", png); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(png); err != nil || info.Size() == 0 {
		t.Errorf("plot not written: %v", err)
	}
	if err := Plot(scalars, "missing", png); err == nil {
		t.Error("expected error plotting a missing tag")
	}

	xlsx := filepath.Join(dir, "returns.xlsx")
	if err := ExportXLSX(scalars, xlsx); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(scalarSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows want(4) have(%v)", len(rows))
	}
	if rows[1][2] != "NaN" || rows[3][0] != "a" || rows[3][1] != "2" {
		t.Errorf("unexpected rows %v", rows)
	}
}
