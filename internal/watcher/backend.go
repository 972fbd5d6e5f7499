package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
)

// Backend defines the platform-specific file watching implementation.
type Backend interface {
	// Watch adds a directory to be monitored recursively.
	// A failure to watch the directory itself is returned; failures on
	// descendants are logged and skipped.
	Watch(path string) error

	// Start begins watching for events. This method blocks until
	// the context is cancelled.
	Start(ctx context.Context) error

	// Stop stops the backend and releases the OS subscription.
	// The Events and Errors channels are closed once Stop returns.
	Stop() error

	// Events returns the channel for receiving raw change events.
	Events() <-chan Event

	// Errors returns the channel for receiving receive-side errors.
	Errors() <-chan error
}

// BackendKind names a watching implementation.
type BackendKind string

const (
	// BackendAuto selects inotify on Linux and fsnotify elsewhere.
	BackendAuto BackendKind = "auto"
	// BackendInotify uses raw Linux inotify.
	BackendInotify BackendKind = "inotify"
	// BackendFsnotify uses the portable fsnotify library.
	BackendFsnotify BackendKind = "fsnotify"
	// BackendNotify uses syncthing/notify, which recurses natively.
	BackendNotify BackendKind = "notify"
)

// ParseBackend converts a configuration string to a BackendKind.
func ParseBackend(s string) (BackendKind, error) {
	switch kind := BackendKind(s); kind {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendInotify, BackendFsnotify, BackendNotify:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown watcher backend %q", s)
	}
}

// resolve maps BackendAuto to the concrete backend for this platform.
func (k BackendKind) resolve() BackendKind {
	if k != BackendAuto && k != "" {
		return k
	}
	if runtime.GOOS == "linux" {
		return BackendInotify
	}
	return BackendFsnotify
}

func newBackend(logger *slog.Logger, opts Options) (Backend, error) {
	switch kind := opts.Backend.resolve(); kind {
	case BackendInotify:
		return newInotifyBackend(logger, opts)
	case BackendFsnotify:
		return newFsnotifyBackend(logger, opts)
	case BackendNotify:
		return newNotifyBackend(logger, opts)
	default:
		return nil, fmt.Errorf("unknown watcher backend %q", kind)
	}
}
