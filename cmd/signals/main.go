package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rxtech-lab/argo-signals/internal/engine"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/version"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "signals",
		Usage:   "Daily trading signal engine over a fixed stock and ETF universe",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML run configuration. Defaults are used when empty.",
				Sources: cli.EnvVars("SIGNALS_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with provider credentials",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:  "log-output",
				Usage: "Write logs to this file instead of stdout",
			},
		},
		Before: loadEnv,
		Commands: []*cli.Command{
			runCommand(),
			scheduleCommand(),
			serveCommand(),
			viewCommand(),
			schemaCommand(),
		},
	}
}

// loadEnv loads the .env file. A missing file is not an error.
func loadEnv(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("env-file")
	if path == "" {
		return ctx, nil
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ctx, fmt.Errorf("failed to load %s: %w", path, err)
	}

	return ctx, nil
}

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	var opts []logger.Option

	if cmd.Bool("debug") {
		opts = append(opts, logger.WithDebug())
	}

	if output := cmd.String("log-output"); output != "" {
		opts = append(opts, logger.WithOutputPaths(output))
	}

	return logger.NewLogger(opts...)
}

func loadConfig(cmd *cli.Command) (engine.Config, error) {
	config, err := engine.LoadConfig(cmd.String("config"))
	if err != nil {
		return engine.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	return config, nil
}

// newEngine wires the configured provider and report sinks into an engine.
func newEngine(config engine.Config, log *logger.Logger) (*engine.Engine, error) {
	p, err := provider.NewMarketDataProvider(config.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create market data provider: %w", err)
	}

	e, err := engine.NewEngine(config, p,
		engine.WithLogger(log),
		engine.WithSinks(engine.NewSinks(config)...),
	)
	if err != nil {
		if closer, ok := p.(io.Closer); ok {
			closer.Close() //nolint:errcheck
		}

		return nil, err
	}

	return e, nil
}
