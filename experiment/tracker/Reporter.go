package tracker

import (
	"fmt"
	"io"
	"strings"
)

// Reporter reports the average return of a run at each epoch. Reports
// are logged to a ScalarWriter and printed as a progress line.
type Reporter struct {
	tag  string
	sink ScalarWriter
	out  io.Writer
}

// NewReporter returns a new Reporter for a run on the environment
// envID. The average return is logged to sink under the tag
// "<name>_average_return", where name is the last "/" separated
// segment of envID. Progress lines are written to out. Either of sink
// and out may be nil.
func NewReporter(envID string, sink ScalarWriter, out io.Writer) *Reporter {
	name := envID[strings.LastIndex(envID, "/")+1:]
	return &Reporter{
		tag:  name + "_average_return",
		sink: sink,
		out:  out,
	}
}

// Tag returns the tag the average return is logged under
func (r *Reporter) Tag() string {
	return r.tag
}

// Report reports the average return value at epoch, along with the
// number of transitions stored in the agent's buffer. A NaN value is
// logged and printed as NaN.
func (r *Reporter) Report(epoch int, value float64, bufferLen int) error {
	if r.sink != nil {
		if err := r.sink.AddScalar(r.tag, epoch, value); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		if f, ok := r.sink.(interface{ Flush() error }); ok {
			if err := f.Flush(); err != nil {
				return fmt.Errorf("report: %w", err)
			}
		}
	}

	if r.out != nil {
		_, err := fmt.Fprintf(r.out,
			"epoch: %d, average_return: %f, buffer_capacity: %d\n",
			epoch, value, bufferLen)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	return nil
}
