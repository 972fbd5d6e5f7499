//go:build linux

package watcher

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestNewInotifyBackend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	opts := Options{}
	opts.setDefaults()

	backend, err := newInotifyBackend(logger, opts)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.NotNil(t, backend.Events(), "Events channel should not be nil")
	assert.NotNil(t, backend.Errors(), "Errors channel should not be nil")

	assert.NoError(t, backend.Stop())
}

func TestOpFromMask(t *testing.T) {
	tests := []struct {
		name string
		mask uint32
		want Op
	}{
		{"create", unix.IN_CREATE, OpCreate},
		{"create dir", unix.IN_CREATE | unix.IN_ISDIR, OpCreate},
		{"modify", unix.IN_MODIFY, OpModify},
		{"delete", unix.IN_DELETE, OpRemove},
		{"delete self", unix.IN_DELETE_SELF, OpRemove},
		{"moved from", unix.IN_MOVED_FROM, OpRename},
		{"moved to", unix.IN_MOVED_TO, OpCreate},
		{"moved to dir", unix.IN_MOVED_TO | unix.IN_ISDIR, OpCreate},
		{"move self", unix.IN_MOVE_SELF, OpRename},
		{"attrib", unix.IN_ATTRIB, OpChmod},
		{"close write", unix.IN_CLOSE_WRITE, OpAccess},
		{"unknown", 0, OpOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, opFromMask(tt.mask))
		})
	}
}

func TestInotifyBackend_WatchTracksDescriptors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	opts := Options{}
	opts.setDefaults()

	backend, err := newInotifyBackend(logger, opts)
	require.NoError(t, err)
	defer backend.Stop() //nolint:errcheck // Test cleanup

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(root+"/a/b", 0o755))
	require.NoError(t, backend.Watch(root))

	backend.mu.RLock()
	defer backend.mu.RUnlock()
	assert.Len(t, backend.watches, 3, "root and both descendants are watched")
	assert.Contains(t, backend.watches, root+"/a/b")
}

func TestClen(t *testing.T) {
	assert.Equal(t, 3, clen([]byte{'a', 'b', 'c', 0, 0}))
	assert.Equal(t, 2, clen([]byte{'a', 'b'}))
	assert.Equal(t, 0, clen([]byte{0}))
}
