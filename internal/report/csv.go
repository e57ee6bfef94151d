package report

import (
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// CSVWriter writes the run artifacts as CSV files.
// Daily signals, details and summary are overwritten on every run; the trade history is appended.
type CSVWriter struct {
	paths Paths
}

// NewCSVWriter creates a writer for paths.
func NewCSVWriter(paths Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// Write implements Sink.
func (w *CSVWriter) Write(report types.RunReport) error {
	records := report.Records
	if records == nil {
		records = []types.TradeRecord{}
	}

	if err := overwrite(w.paths.DailySignals, &records); err != nil {
		return err
	}

	if err := appendRows(w.paths.TradeHistory, &records); err != nil {
		return err
	}

	details := report.Details
	if details == nil {
		details = []types.PortfolioDetail{}
	}

	if err := overwrite(w.paths.PortfolioDetails, &details); err != nil {
		return err
	}

	summary := []types.PortfolioSummary{report.Summary}

	return overwrite(w.paths.PortfolioSummary, &summary)
}

// Close implements Sink.
func (w *CSVWriter) Close() error {
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	return os.MkdirAll(dir, 0755)
}

// overwrite writes rows with a header, replacing path.
func overwrite(path string, rows any) error {
	if err := ensureDir(path); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create directory for %s", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to write %s", path)
	}

	return nil
}

// appendRows appends rows to path. The header is written only when the file is new or empty.
func appendRows(path string, rows any) error {
	if err := ensureDir(path); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create directory for %s", path)
	}

	info, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr) || (statErr == nil && info.Size() == 0)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to open %s", path)
	}
	defer file.Close()

	if isNew {
		err = gocsv.MarshalFile(rows, file)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, file)
	}

	if err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to append to %s", path)
	}

	return nil
}
