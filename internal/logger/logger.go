package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger used across the signal engine.
type Logger struct {
	*zap.Logger
}

// Option adjusts the zap configuration before the logger is built.
type Option func(config *zap.Config)

// WithDebug lowers the log level to debug.
func WithDebug() Option {
	return func(config *zap.Config) {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
}

// WithOutputPaths redirects log output, e.g. to a run log file.
func WithOutputPaths(paths ...string) Option {
	return func(config *zap.Config) {
		config.OutputPaths = paths
	}
}

// NewLogger creates a new logger instance with production configuration
func NewLogger(opts ...Option) (*Logger, error) {
	config := zap.NewProductionConfig()

	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	for _, opt := range opts {
		opt(&config)
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: zapLogger,
	}, nil
}

// NewNopLogger returns a logger that discards everything. Used by tests.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Named returns a child logger scoped to a component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

// With returns a child logger carrying fields on every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}

	return nil
}
