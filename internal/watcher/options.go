package watcher

import (
	"path/filepath"
	"strings"
)

// DefaultBufferSize is the capacity of a backend's event channel.
const DefaultBufferSize = 256

// Options configures the file watcher behavior.
type Options struct {
	Backend        BackendKind
	IgnorePatterns []string
	IgnoreHidden   bool
	BufferSize     int
	// OnError is called for every receive error after it is logged.
	OnError func(error)
	// OnClose is called by Subscription.Close after the receive loop is
	// cancelled and before it is awaited. It must release a sink that may be
	// blocked, e.g. by closing the queue the sink sends to.
	OnClose func()
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.Backend == "" {
		o.Backend = BackendAuto
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}

	// nil means "not configured"; an explicit empty slice disables ignoring.
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{
			".DS_Store",
			"Thumbs.db",
			"*.tmp",
			"*.swp",
			"~*",
		}
	}
}

// shouldIgnore checks if a path matches ignore patterns.
func (o *Options) shouldIgnore(path string) bool {
	if o.IgnoreHidden {
		parts := strings.Split(filepath.Clean(path), string(filepath.Separator))
		for _, part := range parts {
			if strings.HasPrefix(part, ".") && part != "." && part != ".." {
				return true
			}
		}
	}

	base := filepath.Base(path)
	for _, pattern := range o.IgnorePatterns {
		matched, err := filepath.Match(pattern, base)
		if err == nil && matched {
			return true
		}
	}

	return false
}
