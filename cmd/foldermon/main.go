// Package main provides the entry point for foldermon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/foldermon/foldermon/internal/config"
	"github.com/foldermon/foldermon/internal/di"
	"github.com/foldermon/foldermon/internal/di/providers"
	"github.com/foldermon/foldermon/internal/tui"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		ov       config.Overrides
		headless bool
		noNotify bool
		noAPI    bool
		showLog  bool
	)

	cmd := &cobra.Command{
		Use:   "foldermon",
		Short: "Watch a folder tree and report changes to one file type",
		Long: "foldermon watches a directory tree, classifies create, modify and delete\n" +
			"events for one file extension, tracks per-file status and optionally sends\n" +
			"a notification for every event.",
		Version:       providers.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("headless") {
				ov.Headless = &headless
			}
			if flags.Changed("no-notify") {
				enabled := !noNotify
				ov.NotifyEnabled = &enabled
			}
			if flags.Changed("no-api") {
				enabled := !noAPI
				ov.ServerEnabled = &enabled
			}
			if flags.Changed("show-log") {
				ov.ShowLog = &showLog
			}
			return run(cmd.Context(), ov)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&ov.ConfigPath, "config", "c", "", "path to the TOML config file")
	f.StringVarP(&ov.FolderPath, "folder", "f", "", "folder to watch")
	f.StringVar(&ov.Extension, "ext", "", "file extension to track, e.g. .pdf")
	f.StringVar(&ov.Backend, "backend", "", "watch backend: auto, inotify, fsnotify or notify")
	f.StringVar(&ov.Port, "port", "", "HTTP API port")
	f.StringVar(&ov.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&ov.Environment, "env", "", "environment: development, staging or production")
	f.BoolVar(&headless, "headless", false, "run without the terminal UI")
	f.BoolVar(&noNotify, "no-notify", false, "start with notifications disabled")
	f.BoolVar(&noAPI, "no-api", false, "disable the HTTP API")
	f.BoolVar(&showLog, "show-log", false, "open the terminal UI with the event log visible")

	return cmd
}

func run(parent context.Context, ov config.Overrides) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create DI container
	injector := di.NewContainer(ov)

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		_ = injector.Shutdown()
		return fmt.Errorf("failed to bootstrap: %w", err)
	}

	cfg := do.MustInvoke[*config.Config](injector)
	log := do.MustInvoke[*providers.LoggerHandle](injector)
	trackerHandle := do.MustInvoke[*providers.TrackerHandle](injector)
	subHandle := do.MustInvoke[*providers.SubscriptionHandle](injector)

	var runErr error
	if cfg.Headless() {
		log.Info("Running headless", "tick_interval", cfg.Watch.TickInterval)
		runErr = trackerHandle.Run(ctx, cfg.Watch.TickInterval)
	} else {
		runErr = tui.Run(ctx, trackerHandle.Tracker, tuiOptions(cfg, watchingLine(subHandle)))
	}
	if runErr != nil {
		log.Error("Consumer stopped with error", "error", runErr)
	}

	log.Info("Shutting down gracefully...")

	// The consumer has returned, so the tracker can flush from this goroutine.
	// The DI container handles shutdown order automatically.
	if err := injector.Shutdown(); err != nil {
		// The log file may already be closed.
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
	}

	return runErr
}

func watchingLine(h *providers.SubscriptionHandle) string {
	if !h.Active() {
		return fmt.Sprintf("not watching %s: %v", h.Root(), h.Err())
	}
	return fmt.Sprintf("watching %s (%s)", h.Root(), h.Backend())
}

func tuiOptions(cfg *config.Config, watching string) tui.Options {
	return tui.Options{
		Interval: cfg.Watch.TickInterval,
		Watching: watching,
		ShowLog:  cfg.UI.ShowLog,
	}
}
