package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-signals/internal/report"
	"github.com/rxtech-lab/argo-signals/internal/viewer"
	"github.com/urfave/cli/v3"
)

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:   "view",
		Usage:  "Browse the latest run artifacts in the terminal",
		Action: viewAction,
	}
}

func viewAction(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		viewer.NewModel(report.NewReader(config.Paths.Paths)),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("viewer failed: %w", err)
	}

	return nil
}
