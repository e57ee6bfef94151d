package report

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// Reader loads the CSV artifacts back. A missing file reads as no rows,
// except for the summary which has no meaningful empty value.
type Reader struct {
	paths Paths
}

// NewReader creates a reader for paths.
func NewReader(paths Paths) *Reader {
	return &Reader{paths: paths}
}

// Paths returns the artifact locations.
func (r *Reader) Paths() Paths {
	return r.paths
}

// TradeHistory returns every trade log row, oldest first.
func (r *Reader) TradeHistory() ([]types.TradeRecord, error) {
	rows := []types.TradeRecord{}
	if err := readRows(r.paths.TradeHistory, &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// DailySignals returns the rows of the latest run.
func (r *Reader) DailySignals() ([]types.TradeRecord, error) {
	rows := []types.TradeRecord{}
	if err := readRows(r.paths.DailySignals, &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// PortfolioDetails returns the valuation rows of the latest run.
func (r *Reader) PortfolioDetails() ([]types.PortfolioDetail, error) {
	rows := []types.PortfolioDetail{}
	if err := readRows(r.paths.PortfolioDetails, &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// PortfolioSummary returns the summary of the latest run.
// A missing or empty file is reported as ErrCodeDataNotFound.
func (r *Reader) PortfolioSummary() (types.PortfolioSummary, error) {
	var rows []types.PortfolioSummary
	if err := readRows(r.paths.PortfolioSummary, &rows); err != nil {
		return types.PortfolioSummary{}, err
	}

	if len(rows) == 0 {
		return types.PortfolioSummary{}, errors.New(errors.ErrCodeDataNotFound, "portfolio summary not found")
	}

	return rows[0], nil
}

func readRows(path string, out any) error {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return errors.Wrapf(errors.ErrCodeReportReadFailed, err, "failed to open %s", path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err == nil && info.Size() == 0 {
		return nil
	}

	if err := gocsv.UnmarshalFile(file, out); err != nil {
		return errors.Wrapf(errors.ErrCodeReportReadFailed, err, "failed to parse %s", path)
	}

	return nil
}
