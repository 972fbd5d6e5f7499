package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// availableBackends lists the backends that can run on this platform.
func availableBackends() []BackendKind {
	kinds := []BackendKind{BackendFsnotify, BackendNotify}
	if runtime.GOOS == "linux" {
		kinds = append(kinds, BackendInotify)
	}
	return kinds
}

// waitForEvent reads events until one matches or the timeout expires.
func waitForEvent(t *testing.T, events <-chan Event, match func(Event) bool) Event {
	t.Helper()

	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "events channel closed")
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timeout waiting for event")
			return Event{}
		}
	}
}

func TestNew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	for _, kind := range availableBackends() {
		t.Run(string(kind), func(t *testing.T) {
			w, err := New(logger, Options{Backend: kind})
			require.NoError(t, err)
			require.NotNil(t, w)
			assert.Equal(t, kind, w.Backend())

			assert.NoError(t, w.Stop())
		})
	}
}

func TestWatcher_WatchMissingDirectory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	for _, kind := range []BackendKind{BackendFsnotify, BackendAuto} {
		t.Run(string(kind), func(t *testing.T) {
			w, err := New(logger, Options{Backend: kind})
			require.NoError(t, err)
			defer w.Stop() //nolint:errcheck // Test cleanup

			err = w.Watch(filepath.Join(t.TempDir(), "missing"))
			assert.Error(t, err)
		})
	}
}

func TestWatcher_FileLifecycle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	for _, kind := range availableBackends() {
		t.Run(string(kind), func(t *testing.T) {
			w, err := New(logger, Options{Backend: kind})
			require.NoError(t, err)
			defer w.Stop() //nolint:errcheck // Test cleanup

			tmpDir := t.TempDir()
			nested := filepath.Join(tmpDir, "nested")
			require.NoError(t, os.Mkdir(nested, 0o755))

			require.NoError(t, w.Watch(tmpDir))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Start(ctx) //nolint:errcheck // Test goroutine

			testFile := filepath.Join(nested, "report.pdf")
			require.NoError(t, os.WriteFile(testFile, []byte("%PDF-1.7"), 0o644))

			created := waitForEvent(t, w.Events(), func(ev Event) bool {
				path, _ := ev.Path()
				return ev.Op == OpCreate && filepath.Base(path) == "report.pdf"
			})
			assert.Len(t, created.Paths, 1)

			require.NoError(t, os.Remove(testFile))

			waitForEvent(t, w.Events(), func(ev Event) bool {
				path, _ := ev.Path()
				return ev.Op == OpRemove && filepath.Base(path) == "report.pdf"
			})
		})
	}
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	for _, kind := range availableBackends() {
		t.Run(string(kind), func(t *testing.T) {
			w, err := New(logger, Options{Backend: kind})
			require.NoError(t, err)
			defer w.Stop() //nolint:errcheck // Test cleanup

			tmpDir := t.TempDir()
			require.NoError(t, w.Watch(tmpDir))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Start(ctx) //nolint:errcheck // Test goroutine

			later := filepath.Join(tmpDir, "later")
			require.NoError(t, os.Mkdir(later, 0o755))
			waitForEvent(t, w.Events(), func(ev Event) bool {
				path, _ := ev.Path()
				return ev.Op == OpCreate && filepath.Base(path) == "later"
			})

			// Give the backend a moment to register the new directory.
			time.Sleep(100 * time.Millisecond)

			require.NoError(t, os.WriteFile(filepath.Join(later, "deep.pdf"), []byte("x"), 0o644))
			waitForEvent(t, w.Events(), func(ev Event) bool {
				path, _ := ev.Path()
				return ev.Op == OpCreate && filepath.Base(path) == "deep.pdf"
			})
		})
	}
}

func TestWatcher_IgnoredPathsAreDropped(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	w, err := New(logger, Options{Backend: BackendFsnotify})
	require.NoError(t, err)
	defer w.Stop() //nolint:errcheck // Test cleanup

	tmpDir := t.TempDir()
	require.NoError(t, w.Watch(tmpDir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx) //nolint:errcheck // Test goroutine

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "scratch.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "kept.pdf"), []byte("x"), 0o644))

	ev := waitForEvent(t, w.Events(), func(Event) bool { return true })
	path, _ := ev.Path()
	assert.Equal(t, "kept.pdf", filepath.Base(path), "ignored file must not be reported")
}

func TestWatcher_StopClosesChannels(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	w, err := New(logger, Options{Backend: BackendFsnotify})
	require.NoError(t, err)

	require.NoError(t, w.Watch(t.TempDir()))
	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	assert.False(t, ok)
	_, ok = <-w.Errors()
	assert.False(t, ok)
}

func TestWatcher_DirectoryMovedInIsWatched(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	kinds := []BackendKind{BackendFsnotify}
	if runtime.GOOS == "linux" {
		kinds = append(kinds, BackendInotify)
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			w, err := New(logger, Options{Backend: kind})
			require.NoError(t, err)
			defer w.Stop() //nolint:errcheck // Test cleanup

			root := t.TempDir()
			outside := t.TempDir()
			incoming := filepath.Join(outside, "incoming")
			require.NoError(t, os.Mkdir(incoming, 0o755))

			require.NoError(t, w.Watch(root))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Start(ctx) //nolint:errcheck // Test goroutine

			moved := filepath.Join(root, "incoming")
			require.NoError(t, os.Rename(incoming, moved))
			waitForEvent(t, w.Events(), func(ev Event) bool {
				path, _ := ev.Path()
				return ev.Op == OpCreate && path == moved
			})

			// Give the backend a moment to register the moved directory.
			time.Sleep(100 * time.Millisecond)

			require.NoError(t, os.WriteFile(filepath.Join(moved, "late.pdf"), []byte("x"), 0o644))
			waitForEvent(t, w.Events(), func(ev Event) bool {
				path, _ := ev.Path()
				return ev.Op == OpCreate && filepath.Base(path) == "late.pdf"
			})
		})
	}
}

func TestWatcher_MovesMapToSameOpOnEveryBackend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	tests := []struct {
		name string
		// move returns the path the event must carry.
		move func(t *testing.T, root, outside string) string
		want Op
	}{
		{
			name: "file moved into the tree",
			move: func(t *testing.T, root, outside string) string {
				src := filepath.Join(outside, "arrived.pdf")
				require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
				dst := filepath.Join(root, "arrived.pdf")
				require.NoError(t, os.Rename(src, dst))
				return dst
			},
			want: OpCreate,
		},
		{
			name: "file moved out of the tree",
			move: func(t *testing.T, root, outside string) string {
				src := filepath.Join(root, "left.pdf")
				require.NoError(t, os.Rename(src, filepath.Join(outside, "left.pdf")))
				return src
			},
			want: OpRename,
		},
	}

	for _, kind := range availableBackends() {
		for _, tt := range tests {
			t.Run(string(kind)+"/"+tt.name, func(t *testing.T) {
				root := t.TempDir()
				outside := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(root, "left.pdf"), []byte("x"), 0o644))

				w, err := New(logger, Options{Backend: kind})
				require.NoError(t, err)
				defer w.Stop() //nolint:errcheck // Test cleanup
				require.NoError(t, w.Watch(root))

				ctx, cancel := context.WithCancel(context.Background())
				defer cancel()
				go w.Start(ctx) //nolint:errcheck // Test goroutine

				path := tt.move(t, root, outside)
				ev := waitForEvent(t, w.Events(), func(ev Event) bool {
					got, _ := ev.Path()
					return got == path
				})
				assert.Equal(t, tt.want, ev.Op)
			})
		}
	}
}

func TestResolveRename(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.pdf")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o644))

	assert.Equal(t, OpCreate, resolveRename(OpRename, present))
	assert.Equal(t, OpRename, resolveRename(OpRename, filepath.Join(dir, "gone.pdf")))
	assert.Equal(t, OpModify, resolveRename(OpModify, present))
}
