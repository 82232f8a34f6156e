package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/bridgetable/cmd/bridgetable/shared"
	"github.com/lox/bridgetable/internal/client"
	"github.com/lox/bridgetable/internal/tui"
)

// ClientCmd opens the terminal client.
type ClientCmd struct {
	Config   string `short:"c" default:"client.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" help:"Server address, host:port or ws:// URL (overrides config)"`
	Name     string `short:"n" help:"Name to take at the table (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	LogFile  string `help:"Log file path (overrides config)"`
}

func (c *ClientCmd) Run() error {
	cfg, err := client.LoadClientConfig(c.Config)
	if err != nil {
		return err
	}

	if c.Server != "" {
		cfg.Server.Address = c.Server
	}
	if c.Name != "" {
		cfg.Player.Name = c.Name
	}
	if c.LogLevel != "" {
		cfg.Player.LogLevel = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.Player.LogFile = c.LogFile
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.Player.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger := shared.SetupLogger(logFile, cfg.Player.LogLevel)
	logger.Info("Starting client", "server", cfg.Server.Address, "name", cfg.Player.Name)

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ConnectTimeout)*time.Second)
	defer cancel()

	conn, err := client.Dial(dialCtx, cfg.Server.Address, logger)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Server.Address, err)
	}
	defer func() { _ = conn.Close() }()

	if cfg.Player.Name != "" {
		if err := conn.Name(cfg.Player.Name); err != nil {
			return err
		}
	}

	program := tea.NewProgram(tui.New(conn, conn.Events(), logger), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
