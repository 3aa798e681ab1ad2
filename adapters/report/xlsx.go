package report

import (
	"fmt"
	"os"
	"path/filepath"

	"loadanalysis/domain/run"
	"loadanalysis/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	SeriesSheet  = "Series"
)

// ExportXLSX writes a workbook with a per-file summary sheet and a sheet of
// every trimmed sample in emission order.
func ExportXLSX(result *run.Result, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return errors.Wrap(err, "failed to name summary sheet")
	}
	if _, err := f.NewSheet(SeriesSheet); err != nil {
		return errors.Wrap(err, "failed to create series sheet")
	}

	summaryRows := [][]interface{}{
		{"run_id", result.RunID.String()},
		{"threshold", result.Threshold},
		{"threshold_owner", result.ThresholdOwner},
		{"mean_of_stds", result.Aggregate.MeanOfStds},
		{},
		{"file", "samples", "mean", "std"},
	}
	for _, fa := range result.Aggregate.PerSeries {
		summaryRows = append(summaryRows, []interface{}{fa.FileID, fa.Samples, fa.Mean, fa.Std})
	}
	if err := writeRows(f, SummarySheet, summaryRows); err != nil {
		return err
	}

	seriesRows := [][]interface{}{{"file", "timestamp", "delta"}}
	for _, s := range result.Trimmed {
		for i := range s.Timestamps {
			seriesRows = append(seriesRows, []interface{}{s.ID, s.Timestamps[i], s.Deltas[i]})
		}
	}
	if err := writeRows(f, SeriesSheet, seriesRows); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.IOError(fmt.Sprintf("cannot create directory for %s", path), err)
	}
	if err := f.SaveAs(path); err != nil {
		return errors.IOError(fmt.Sprintf("cannot save %s", path), err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write %s row %d", sheet, i+1)
		}
	}
	return nil
}
