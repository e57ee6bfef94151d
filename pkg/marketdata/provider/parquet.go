package provider

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// ParquetClient replays daily bars from a Parquet export of a previous run
// (see writer.DuckDBWriter). The file is queried through an in-memory DuckDB view.
type ParquetClient struct {
	path string
	sq   squirrel.StatementBuilderType

	once    sync.Once
	db      *sql.DB
	openErr error
}

// NewParquetClient creates a replay provider over the Parquet file at path.
func NewParquetClient(path string) (*ParquetClient, error) {
	if path == "" {
		return nil, fmt.Errorf("parquet path is required")
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open market data file: %w", err)
	}

	return &ParquetClient{
		path: path,
		sq:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

func (c *ParquetClient) Name() ProviderType {
	return ProviderParquet
}

func (c *ParquetClient) open() (*sql.DB, error) {
	c.once.Do(func() {
		db, err := sql.Open("duckdb", "")
		if err != nil {
			c.openErr = fmt.Errorf("failed to open DuckDB connection: %w", err)

			return
		}

		// Using raw SQL as Squirrel doesn't support CREATE VIEW
		query := fmt.Sprintf(`CREATE VIEW market_data AS SELECT * FROM read_parquet('%s')`,
			strings.ReplaceAll(c.path, "'", "''"))

		if _, err := db.Exec(query); err != nil {
			db.Close()
			c.openErr = fmt.Errorf("failed to read %s: %w", c.path, err)

			return
		}

		c.db = db
	})

	return c.db, c.openErr
}

// GetHistory returns the stored bars of symbol between start and end, oldest first.
func (c *ParquetClient) GetHistory(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	db, err := c.open()
	if err != nil {
		return nil, err
	}

	query, args, err := c.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		Where(squirrel.GtOrEq{"time": start}).
		Where(squirrel.LtOrEq{"time": end}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get historical data for %s: %w", symbol, err)
	}
	defer rows.Close()

	series := make(types.PriceSeries, 0)

	for rows.Next() {
		var bar types.PriceBar
		if err := rows.Scan(&bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar of %s: %w", symbol, err)
		}

		bar.Date = bar.Date.UTC()
		series = append(series, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read historical data for %s: %w", symbol, err)
	}

	return normalize(series), nil
}

// LatestPrice returns the last stored close of symbol.
func (c *ParquetClient) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	db, err := c.open()
	if err != nil {
		return 0, err
	}

	query, args, err := c.sq.
		Select("close").
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("time DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var price float64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&price); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("no recent price for %s", symbol)
		}

		return 0, fmt.Errorf("failed to get latest price for %s: %w", symbol, err)
	}

	return price, nil
}

// Close releases the DuckDB connection.
func (c *ParquetClient) Close() error {
	if c.db == nil {
		return nil
	}

	return c.db.Close()
}
