package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/portico-ui/portico/internal/config"
	"github.com/portico-ui/portico/internal/errors"
	"github.com/portico-ui/portico/pkg/server"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		address    string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the portal server",
		Long: `Start the HTTP/WebSocket portal server.

Configuration is read from portico.json in the working directory;
flags override file values.

Examples:
  portico serve
  portico serve --address=:3000
  portico serve --config=deploy/portico.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(address, configPath)
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "Listen address (default from portico.json)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to portico.json")

	return cmd
}

func runServe(address, configPath string) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		wd, _ := os.Getwd()
		cfg, err = config.Load(wd)
	}
	if err != nil {
		return err
	}

	// A flag override bypasses the load-time validation, so re-check.
	if address != "" {
		cfg.Server.Address = address
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	setupLogging(cfg.Log)

	printBanner()
	info("serving on %s", cfg.Server.Address)

	srv := server.New(cfg.ServerConfig())

	// Graceful shutdown on SIGINT/SIGTERM.
	done := make(chan error, 1)
	go func() {
		done <- srv.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-done:
		if err != nil {
			return errors.FromError(err, "E200").
				WithDetail("Could not listen on " + cfg.Server.Address).
				WithSuggestion("Check that the address is free and you may bind to it")
		}
		return nil
	case <-sig:
		info("shutting down")
		if err := srv.Shutdown(context.Background()); err != nil {
			return err
		}
		if err := <-done; err != nil {
			return errors.FromError(err, "E200")
		}
		return nil
	}
}

// setupLogging configures the default slog logger from the file config.
func setupLogging(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
