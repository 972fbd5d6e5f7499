// Package watcher observes directory trees through the OS change
// notification facility and reports unclassified change events.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
)

// Watcher monitors file system changes through a single backend.
type Watcher struct {
	backend Backend
	kind    BackendKind
	logger  *slog.Logger
}

// New creates a new file watcher using the backend named in opts.
// BackendAuto selects inotify on Linux and fsnotify on other platforms.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	backend, err := newBackend(logger, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend: %w", err)
	}

	kind := opts.Backend.resolve()
	logger.Info("watcher backend selected", "backend", kind)

	return &Watcher{
		backend: backend,
		kind:    kind,
		logger:  logger,
	}, nil
}

// Backend returns the concrete backend kind in use.
func (w *Watcher) Backend() BackendKind {
	return w.kind
}

// Watch adds a directory to be monitored recursively.
func (w *Watcher) Watch(path string) error {
	return w.backend.Watch(path)
}

// Start begins watching for events.
// This method blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	return w.backend.Start(ctx)
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() error {
	return w.backend.Stop()
}

// Events returns the channel for receiving file system events.
func (w *Watcher) Events() <-chan Event {
	return w.backend.Events()
}

// Errors returns the channel for receiving errors.
func (w *Watcher) Errors() <-chan error {
	return w.backend.Errors()
}
