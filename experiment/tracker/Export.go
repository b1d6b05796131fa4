package tracker

import (
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
)

const scalarSheet = "Scalars"

// ExportXLSX writes scalars to the spreadsheet out, one row per scalar
// in logged order. NaN values are written as the text "NaN".
func ExportXLSX(scalars []Scalar, out string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(scalarSheet)
	if err != nil {
		return fmt.Errorf("exportXLSX: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("exportXLSX: %w", err)
	}

	headers := []interface{}{"Tag", "Step", "Value", "WallTime"}
	if err := f.SetSheetRow(scalarSheet, "A1", &headers); err != nil {
		return fmt.Errorf("exportXLSX: %w", err)
	}

	for i, s := range scalars {
		var value interface{} = s.Value
		if math.IsNaN(s.Value) {
			value = "NaN"
		}
		row := []interface{}{
			s.Tag,
			s.Step,
			value,
			s.WallTime.Format(time.RFC3339),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(scalarSheet, cell, &row); err != nil {
			return fmt.Errorf("exportXLSX: %w", err)
		}
	}

	if err := f.SaveAs(out); err != nil {
		return fmt.Errorf("exportXLSX: could not save %v: %w", out, err)
	}
	return nil
}
