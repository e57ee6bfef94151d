package engine

import (
	"github.com/rxtech-lab/argo-signals/internal/report"
)

// NewSinks returns the report sinks selected by config: the CSV artifacts, plus the
// Parquet trade history when a path is configured.
func NewSinks(config Config) []report.Sink {
	sinks := []report.Sink{report.NewCSVWriter(config.Paths.Paths)}

	if path, err := config.Paths.HistoryParquetPath().Take(); err == nil {
		sinks = append(sinks, report.NewHistoryStore(path))
	}

	return sinks
}
