// Package providers contains dependency injection providers for foldermon.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/foldermon/foldermon/internal/config"
	"github.com/foldermon/foldermon/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	ov := do.MustInvoke[config.Overrides](i)
	return config.LoadConfig(ov)
}

// LoggerHandle wraps the logger and the log file it may own.
type LoggerHandle struct {
	*logger.Logger
	file *os.File
}

// Shutdown implements do.Shutdownable.
func (h *LoggerHandle) Shutdown() error {
	if h.file == nil {
		return nil
	}
	return h.file.Close()
}

// ProvideLogger provides the structured logger. The terminal UI owns stdout,
// so in that mode logs go to the configured file without colors.
func ProvideLogger(i do.Injector) (*LoggerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	lc := logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	}

	var file *os.File
	if !cfg.Headless() {
		f, err := logger.OpenFile(cfg.Logger.File)
		if err != nil {
			return nil, err
		}
		file = f
		lc.Writer = f
		lc.NoColor = true
	}

	log := logger.New(lc)

	log.Info("Starting foldermon",
		"version", Version,
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"folder", cfg.FolderPath,
		"extension", cfg.Watch.Extension,
		"backend", cfg.Watch.Backend,
		"notify_channel", cfg.NotifyChannel(),
	)

	return &LoggerHandle{Logger: log, file: file}, nil
}
