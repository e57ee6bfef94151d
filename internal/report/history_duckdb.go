package report

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

const historyTable = "trade_history"

// HistoryStore keeps the trade log as a Parquet file, one row per asset per run.
// Each Write loads the existing file into an in-memory DuckDB database, appends the
// run and exports the table back.
type HistoryStore struct {
	path string
	sq   squirrel.StatementBuilderType
}

// NewHistoryStore creates a store for the Parquet file at path.
func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{
		path: path,
		sq:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// Path returns the Parquet file path.
func (h *HistoryStore) Path() string {
	return h.path
}

func (h *HistoryStore) open() (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE ` + historyTable + ` (
			run_id TEXT,
			date TEXT,
			asset TEXT,
			asset_class TEXT,
			decision TEXT,
			confidence INTEGER,
			price DOUBLE
		)
	`)
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	if _, statErr := os.Stat(h.path); statErr == nil {
		_, err = db.Exec(fmt.Sprintf(`INSERT INTO %s SELECT run_id, date, asset, asset_class, decision, confidence, price FROM read_parquet('%s')`,
			historyTable, escapeSQLString(h.path)))
		if err != nil {
			db.Close()

			return nil, fmt.Errorf("failed to load %s: %w", h.path, err)
		}
	}

	return db, nil
}

// Write implements Sink.
func (h *HistoryStore) Write(report types.RunReport) error {
	db, err := h.open()
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to open trade history", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to begin transaction", err)
	}

	for _, r := range report.Records {
		_, err = h.sq.
			Insert(historyTable).
			Columns("run_id", "date", "asset", "asset_class", "decision", "confidence", "price").
			Values(report.RunID, r.Date, r.Asset, r.AssetClass, string(r.Decision), r.Confidence, r.Price).
			RunWith(tx).
			Exec()
		if err != nil {
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to insert %s", r.Asset)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to commit trade history", err)
	}

	if err := ensureDir(h.path); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to create trade history directory", err)
	}

	// Parquet export goes through a temp file so a failed COPY keeps the previous history.
	tmp := h.path + ".tmp"

	_, err = db.Exec(fmt.Sprintf(`COPY (SELECT * FROM %s ORDER BY date, asset) TO '%s' (FORMAT PARQUET)`, historyTable, escapeSQLString(tmp)))
	if err != nil {
		os.Remove(tmp)

		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to export trade history", err)
	}

	if err := os.Rename(tmp, h.path); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to replace trade history", err)
	}

	return nil
}

// Close implements Sink.
func (h *HistoryStore) Close() error {
	return nil
}

// Records returns the stored rows ordered by date, optionally restricted to one asset.
func (h *HistoryStore) Records(asset optional.Option[string]) ([]types.TradeRecord, error) {
	if _, err := os.Stat(h.path); os.IsNotExist(err) {
		return []types.TradeRecord{}, nil
	}

	db, err := h.open()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open trade history", err)
	}
	defer db.Close()

	query := h.sq.
		Select("date", "asset", "asset_class", "decision", "confidence", "price").
		From(historyTable).
		OrderBy("date ASC", "asset ASC")

	if symbol, takeErr := asset.Take(); takeErr == nil {
		query = query.Where(squirrel.Eq{"asset": symbol})
	}

	rows, err := query.RunWith(db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trade history", err)
	}
	defer rows.Close()

	records := make([]types.TradeRecord, 0)

	for rows.Next() {
		var (
			r        types.TradeRecord
			decision string
		)

		if err := rows.Scan(&r.Date, &r.Asset, &r.AssetClass, &decision, &r.Confidence, &r.Price); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade history", err)
		}

		r.Decision = types.Decision(decision)
		records = append(records, r)
	}

	return records, rows.Err()
}

// DecisionCounts returns how many times each decision was recorded for asset.
func (h *HistoryStore) DecisionCounts(asset string) (map[types.Decision]int, error) {
	counts := make(map[types.Decision]int)

	if _, err := os.Stat(h.path); os.IsNotExist(err) {
		return counts, nil
	}

	db, err := h.open()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open trade history", err)
	}
	defer db.Close()

	rows, err := h.sq.
		Select("decision", "COUNT(*)").
		From(historyTable).
		Where(squirrel.Eq{"asset": asset}).
		GroupBy("decision").
		RunWith(db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count decisions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			decision string
			count    int
		)

		if err := rows.Scan(&decision, &count); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan decision count", err)
		}

		counts[types.Decision(decision)] = count
	}

	return counts, rows.Err()
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
