package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/failguard/failguard/internal/config"
	"github.com/failguard/failguard/internal/server"
	"github.com/failguard/failguard/internal/tailer"
	"github.com/failguard/failguard/internal/usecase/jail"
	"github.com/failguard/failguard/internal/usecase/notify"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ban engine and its HTTP API",
	Long: `Load jail definitions, tail the configured log files, feed every new
line through the jails, and expose the management API. Ban events are
logged and streamed to WebSocket subscribers.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger := config.SetupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := server.NewHub(logger)
	dispatcher := notify.NewDispatcher(logger, cfg.Notify.EventsPerSec,
		notify.NewLogNotifier(logger), hub)

	jails, err := jail.LoadDefinitions(cfg.Jails.Dir, logger,
		jail.WithLogger(logger), jail.WithNotifier(dispatcher))
	if err != nil {
		return fmt.Errorf("load jail definitions: %w", err)
	}
	if len(jails) == 0 {
		return fmt.Errorf("no enabled jails in %s", cfg.Jails.Dir)
	}
	manager := jail.NewManager(jails)
	logger.Info("jails loaded", "count", len(jails), "names", manager.Names())

	go hub.Run(ctx)
	go dispatcher.Run(ctx)

	if len(cfg.Watch.Paths) > 0 {
		paths := tailer.ResolvePaths(cfg.Watch.Paths, logger)
		if len(paths) == 0 {
			logger.Warn("no files matched watch patterns", "patterns", cfg.Watch.Paths)
		} else {
			tl, err := tailer.New(paths, logger)
			if err != nil {
				return fmt.Errorf("start tailer: %w", err)
			}
			go tl.Start(ctx)
			go func() {
				for line := range tl.Lines() {
					manager.ProcessLine(line.Text, line.Time)
				}
			}()
			logger.Info("tailing log files", "count", len(paths))
		}
	}

	srv := server.New(cfg, manager, hub, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	return nil
}
