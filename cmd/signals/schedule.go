package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/scheduler"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func scheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run the signal pipeline on a cron schedule until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "cron",
				Usage: "Five-field cron expression; overrides the schedule of the config",
			},
			&cli.BoolFlag{
				Name:  "run-now",
				Usage: "Also run once immediately",
			},
		},
		Action: scheduleAction,
	}
}

func scheduleAction(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if spec := cmd.String("cron"); spec != "" {
		config.Schedule = spec
	}

	log, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	job := scheduler.NewJobFunc("signals", func(ctx context.Context) error {
		result, err := runOnce(ctx, config, log, io.Discard)
		if err != nil {
			return err
		}

		log.Info("Run finished",
			zap.String("run_id", result.RunID),
			zap.Int("processed", result.Processed()),
			zap.Int("skipped", len(result.Skipped())),
			zap.Float64("portfolio_value", result.Valuation.Summary.PortfolioValue),
		)

		return nil
	})

	s := scheduler.New(ctx, log)

	id, err := s.Add(config.Schedule, job)
	if err != nil {
		return err
	}

	if cmd.Bool("run-now") {
		// A failed immediate run does not stop the schedule.
		_ = s.RunNow(job)
	}

	s.Start()
	log.Info("Waiting for next run", zap.Time("next", s.Next(id)))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.Stop(stopCtx)
}
