// Package tracker implements the metrics of a training run: a rolling
// window of episodic returns, a Reporter which records the
// window's mean, and a log of scalar values that can be read back
// after the run.
package tracker

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ScalarFile is the name of the file scalars are logged to in a log
// directory
const ScalarFile = "scalars.gob"

// ScalarWriter records scalar values of a run keyed by tag and step
type ScalarWriter interface {
	AddScalar(tag string, step int, value float64) error
}

// Header is the first record of a scalar log
type Header struct {
	RunID   string
	Created time.Time
}

// Scalar is a single logged value. Undefined values, such as the mean
// of an empty window, are logged as NaN.
type Scalar struct {
	Tag      string
	Step     int
	Value    float64
	WallTime time.Time
}

// GobWriter is a ScalarWriter which gob encodes scalars to a file. A
// GobWriter buffers its writes and must be closed after use.
type GobWriter struct {
	file   *os.File
	buf    *bufio.Writer
	enc    *gob.Encoder
	closed bool
}

// OpenScalarWriter creates the scalar log in the directory dir and
// writes its Header.
func OpenScalarWriter(dir, runID string) (*GobWriter, error) {
	file, err := os.Create(filepath.Join(dir, ScalarFile))
	if err != nil {
		return nil, fmt.Errorf("openScalarWriter: could not create log "+
			"file: %w", err)
	}

	buf := bufio.NewWriter(file)
	w := &GobWriter{file: file, buf: buf, enc: gob.NewEncoder(buf)}

	header := Header{RunID: runID, Created: time.Now()}
	if err := w.enc.Encode(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("openScalarWriter: could not encode "+
			"header: %w", err)
	}
	return w, nil
}

// AddScalar logs value at step under tag
func (g *GobWriter) AddScalar(tag string, step int, value float64) error {
	if g.closed {
		return fmt.Errorf("addScalar: writer is closed")
	}
	scalar := Scalar{Tag: tag, Step: step, Value: value, WallTime: time.Now()}
	if err := g.enc.Encode(scalar); err != nil {
		return fmt.Errorf("addScalar: %w", err)
	}
	return nil
}

// Flush writes all buffered scalars to the log file
func (g *GobWriter) Flush() error {
	if g.closed {
		return nil
	}
	return g.buf.Flush()
}

// Close flushes and closes the log file. Closing a closed GobWriter
// has no effect.
func (g *GobWriter) Close() error {
	if g.closed {
		return nil
	}
	flushErr := g.buf.Flush()
	g.closed = true
	if err := g.file.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if flushErr != nil {
		return fmt.Errorf("close: %w", flushErr)
	}
	return nil
}

// LoadScalars loads and returns the Header and scalars of a scalar
// log. The path may name the log file or the log directory holding
// it.
func LoadScalars(path string) (Header, []Scalar, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ScalarFile)
	}

	file, err := os.Open(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("loadScalars: could not open "+
			"data file: %w", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(bufio.NewReader(file))
	var header Header
	if err := dec.Decode(&header); err != nil {
		return Header{}, nil, fmt.Errorf("loadScalars: could not decode "+
			"header: %w", err)
	}

	var scalars []Scalar
	for {
		var s Scalar
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return header, scalars, fmt.Errorf("loadScalars: could not "+
				"decode scalar %v: %w", len(scalars), err)
		}
		scalars = append(scalars, s)
	}

	return header, scalars, nil
}

// Series returns the scalars logged under tag, in logged order
func Series(scalars []Scalar, tag string) []Scalar {
	var series []Scalar
	for _, s := range scalars {
		if s.Tag == tag {
			series = append(series, s)
		}
	}
	return series
}

// Tags returns the distinct tags of scalars, in order of first
// appearance
func Tags(scalars []Scalar) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, s := range scalars {
		if !seen[s.Tag] {
			seen[s.Tag] = true
			tags = append(tags, s.Tag)
		}
	}
	return tags
}
