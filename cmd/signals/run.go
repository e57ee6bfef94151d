package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rxtech-lab/argo-signals/internal/engine"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the signal pipeline once over the universe",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not show progress or the end-of-run summary",
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	var out io.Writer = os.Stderr
	if cmd.Bool("quiet") {
		out = io.Discard
	}

	result, err := runOnce(ctx, config, log, out)
	if err != nil {
		return err
	}

	if !cmd.Bool("quiet") {
		fmt.Println(RenderRunSummary(result))
	}

	return nil
}

// runOnce runs one pass of the pipeline, drawing fetch progress to out.
func runOnce(ctx context.Context, config engine.Config, log *logger.Logger, out io.Writer) (engine.RunResult, error) {
	e, err := newEngine(config, log)
	if err != nil {
		return engine.RunResult{}, err
	}
	defer e.Close() //nolint:errcheck

	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(_ string, totalAssets int) error {
		bar = progressbar.NewOptions(totalAssets,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Fetching history"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		return nil
	})
	onFetchProgress := engine.OnFetchProgressCallback(func(done int, _ int, symbol string) {
		if bar == nil {
			return
		}

		bar.Describe(fmt.Sprintf("Fetching %-6s", symbol))
		_ = bar.Set(done)
	})
	onAssetStart := engine.OnAssetStartCallback(func(index int, _ string, _ int) error {
		if bar != nil && index == 0 {
			_ = bar.Finish()
		}

		return nil
	})

	return e.Run(ctx, engine.LifecycleCallbacks{
		OnRunStart:      &onRunStart,
		OnFetchProgress: &onFetchProgress,
		OnAssetStart:    &onAssetStart,
	})
}
