package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/desertthunder/filmx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive inbox over the live synchronizer.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.start(ctx, true); err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.sync)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
