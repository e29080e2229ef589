package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/hnsearch/pkg/config"
	"github.com/rubiojr/hnsearch/pkg/log"
	"github.com/rubiojr/hnsearch/pkg/tui"
)

// TUICommand creates the interactive terminal command
func TUICommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Search interactively in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Initial query (defaults to default_query from the config)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs here instead of the terminal",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			query := cfg.DefaultQuery
			if c.IsSet("query") {
				query = c.String("query")
			}

			logPath := c.String("log-file")
			if logPath == "" {
				logPath = filepath.Join(os.TempDir(), "hnsearch-tui.log")
			}
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer logFile.Close()

			previous := log.Output()
			log.SetOutput(logFile)
			defer log.SetOutput(previous)

			model := tui.New(ctx, client, query)
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running terminal UI: %w", err)
			}
			return nil
		},
	}
}
