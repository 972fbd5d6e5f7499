//go:build !linux

package watcher

import (
	"fmt"
	"log/slog"
	"runtime"
)

// newInotifyBackend is unavailable off Linux; BackendAuto never selects it there.
func newInotifyBackend(_ *slog.Logger, _ Options) (Backend, error) {
	return nil, fmt.Errorf("inotify backend not available on %s", runtime.GOOS)
}
