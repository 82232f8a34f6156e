package main

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/bridgetable/cmd/bridgetable/shared"
	"github.com/lox/bridgetable/internal/randutil"
	"github.com/lox/bridgetable/internal/server"
)

// ServerCmd runs a single table.
type ServerCmd struct {
	Config   string `short:"c" default:"table.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"TCP address to bind to (overrides config)"`
	WSAddr   string `name:"ws-addr" help:"WebSocket address to bind to (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Seed     *int64 `help:"Deterministic shuffle seed (overrides config)"`
	List     bool   `help:"Print one line per completed deal to stdout"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}

	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.WSAddr != "" {
		cfg.Server.WSAddress = c.WSAddr
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.Seed != nil {
		cfg.Server.Seed = c.Seed
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := shared.SetupLogger(os.Stderr, cfg.Server.LogLevel)

	seed, rng := randutil.Resolve(cfg.Server.Seed)
	if cfg.Server.Seed != nil {
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		logger.Debug("Using random seed", "seed", seed)
	}

	opts := []server.Option{server.WithRand(rng)}
	if c.List {
		opts = append(opts, server.WithMonitor(server.NewListMonitor(os.Stdout)))
	}

	s := server.NewServer(cfg, logger, opts...)
	if err := s.Listen(); err != nil {
		return err
	}

	logger.Info("Starting bridge table",
		"addr", s.Addr(),
		"ws_addr", s.WSAddr(),
		"grace", cfg.ShutdownGrace())

	ctx, stop := shared.SetupSignalHandler(logger)
	defer stop()

	return serve(ctx, s, logger)
}

// serve runs s until ctx is cancelled or the admin shuts the table down, and
// returns only once connections have drained.
func serve(ctx context.Context, s *server.Server, logger *log.Logger) error {
	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Serve(ctx) }()

	var err error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err = <-serveErr:
		serveErr = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if sErr := s.Shutdown(shutdownCtx); sErr != nil {
		logger.Warn("Connections did not drain in time", "error", sErr)
	}

	if serveErr != nil {
		err = <-serveErr
	}
	return err
}
