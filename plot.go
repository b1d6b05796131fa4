package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/atarirl/experiment/tracker"
)

// PlotCommand returns the command which plots a logged scalar series
func PlotCommand() *cobra.Command {
	var out string
	var tag string

	cmd := &cobra.Command{
		Use:   "plot LOG",
		Short: "Plot the average return logged by a training run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			header, scalars, err := tracker.LoadScalars(args[0])
			if err != nil {
				return err
			}
			if tag == "" {
				if tag, err = firstTag(scalars); err != nil {
					return err
				}
			}

			if err := tracker.Plot(scalars, tag, out); err != nil {
				return err
			}
			log.Printf("run %v: plotted %v to %v", header.RunID, tag, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "curve.png", "Output image file")
	cmd.Flags().StringVar(&tag, "tag", "",
		"Tag to plot, the first logged tag if empty")
	return cmd
}

// ExportCommand returns the command which exports a scalar log to a
// spreadsheet
func ExportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export LOG",
		Short: "Export the scalars logged by a training run to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			header, scalars, err := tracker.LoadScalars(args[0])
			if err != nil {
				return err
			}
			if err := tracker.ExportXLSX(scalars, out); err != nil {
				return err
			}
			log.Printf("run %v: exported %v scalars to %v", header.RunID,
				len(scalars), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "returns.xlsx", "Output spreadsheet")
	return cmd
}

func firstTag(scalars []tracker.Scalar) (string, error) {
	tags := tracker.Tags(scalars)
	if len(tags) == 0 {
		return "", fmt.Errorf("plot: log holds no scalars")
	}
	return tags[0], nil
}
