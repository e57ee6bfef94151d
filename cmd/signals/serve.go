package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-signals/internal/dashboard"
	"github.com/rxtech-lab/argo-signals/internal/report"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the run artifacts as a read-only JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "address",
				Aliases: []string{"a"},
				Usage:   "Listen address",
				Value:   ":5000",
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	opts := []dashboard.Option{dashboard.WithLogger(log)}
	if path, err := config.Paths.HistoryParquetPath().Take(); err == nil {
		opts = append(opts, dashboard.WithHistoryStore(report.NewHistoryStore(path)))
	}

	server := dashboard.NewServer(report.NewReader(config.Paths.Paths), opts...)
	if err := server.Start(cmd.String("address")); err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("Dashboard API on http://%s/api/summary", server.Addr())))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
