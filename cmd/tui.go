package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flowsift/internal/shared"
	"github.com/desertthunder/flowsift/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive browser over a completed analysis export.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	input := cmd.String("input")
	if input == "" {
		input = filepath.Join(r.config.Output.Dir, "analysis.csv")
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/flowsift-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(input)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
