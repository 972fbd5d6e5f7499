//go:build linux

package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// inotifyMask selects the notifications mapped to Ops.
	inotifyMask = unix.IN_CREATE | unix.IN_MODIFY | unix.IN_CLOSE_WRITE |
		unix.IN_DELETE | unix.IN_DELETE_SELF | unix.IN_MOVED_FROM |
		unix.IN_MOVED_TO | unix.IN_MOVE_SELF | unix.IN_ATTRIB

	// pollTimeoutMs bounds how long the reader waits before checking for shutdown.
	pollTimeoutMs = 200

	maxNameLen = 255
)

// errQueueOverflow is reported when the kernel drops events.
var errQueueOverflow = errors.New("inotify event queue overflowed, events were lost")

// inotifyBackend implements Backend using raw Linux inotify.
type inotifyBackend struct {
	logger  *slog.Logger
	watches map[string]int
	wdPaths map[int]string
	events  chan Event
	errors  chan error
	done    chan struct{}
	opts    Options
	run     runGroup
	fd      int
	mu      sync.RWMutex
}

func newInotifyBackend(logger *slog.Logger, opts Options) (*inotifyBackend, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize inotify: %w", err)
	}

	return &inotifyBackend{
		logger:  logger,
		opts:    opts,
		fd:      fd,
		watches: make(map[string]int),
		wdPaths: make(map[int]string),
		events:  make(chan Event, opts.BufferSize),
		errors:  make(chan error, 16),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a directory tree to be monitored.
func (b *inotifyBackend) Watch(path string) error {
	return b.watchDir(filepath.Clean(path))
}

// watchDir recursively watches a directory.
// Only a failure on root itself is returned.
func (b *inotifyBackend) watchDir(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			b.logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if p != root && b.opts.shouldIgnore(p) {
			return filepath.SkipDir
		}

		if err := b.addWatch(p); err != nil {
			if p == root {
				return err
			}
			b.logger.Error("failed to add watch", "path", p, "error", err)
		}
		return nil
	})
}

func (b *inotifyBackend) addWatch(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.watches[path]; exists {
		return nil
	}

	wd, err := unix.InotifyAddWatch(b.fd, path, inotifyMask)
	if err != nil {
		return fmt.Errorf("inotify_add_watch failed: %w", err)
	}

	b.watches[path] = wd
	b.wdPaths[wd] = path
	b.logger.Debug("added watch", "path", path, "wd", wd)

	return nil
}

// forgetWatch drops bookkeeping for a descriptor the kernel already removed.
func (b *inotifyBackend) forgetWatch(wd int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if path, ok := b.wdPaths[wd]; ok {
		delete(b.watches, path)
		delete(b.wdPaths, wd)
		b.logger.Debug("removed watch", "path", path, "wd", wd)
	}
}

// Start begins watching for events.
func (b *inotifyBackend) Start(ctx context.Context) error {
	if !b.run.Go(func() { b.readEvents(ctx) }) {
		return nil
	}

	<-ctx.Done()
	return nil
}

// readEvents polls the inotify descriptor until shutdown.
func (b *inotifyBackend) readEvents(ctx context.Context) {
	buf := make([]byte, (unix.SizeofInotifyEvent+maxNameLen+1)*64)
	//nolint:gosec // G115: fd is a small non-negative descriptor
	fds := []unix.PollFd{{Fd: int32(b.fd), Events: unix.POLLIN}}

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		default:
		}

		ready, err := unix.Poll(fds, pollTimeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			b.emitError(fmt.Errorf("failed to poll inotify: %w", err))
			return
		}
		if ready == 0 {
			continue
		}

		n, err := unix.Read(b.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			b.emitError(fmt.Errorf("failed to read inotify events: %w", err))
			if errors.Is(err, unix.EBADF) {
				return
			}
			continue
		}

		if n < unix.SizeofInotifyEvent {
			continue
		}

		b.parseEvents(buf[:n])
	}
}

// parseEvents parses raw inotify events.
func (b *inotifyBackend) parseEvents(buf []byte) {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buf) {
		//nolint:gosec // G103: Legitimate use of unsafe for syscall interface with inotify
		event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		offset += unix.SizeofInotifyEvent + int(event.Len)

		if event.Mask&unix.IN_Q_OVERFLOW != 0 {
			b.emitError(errQueueOverflow)
			continue
		}

		wd := int(event.Wd)
		if event.Mask&unix.IN_IGNORED != 0 {
			b.forgetWatch(wd)
			continue
		}

		b.mu.RLock()
		dir, ok := b.wdPaths[wd]
		b.mu.RUnlock()
		if !ok {
			continue
		}

		name := ""
		if event.Len > 0 && offset <= len(buf) {
			nameBytes := buf[offset-int(event.Len) : offset]
			name = string(nameBytes[:clen(nameBytes)])
		}

		b.processEvent(filepath.Join(dir, name), event.Mask)
	}
}

func (b *inotifyBackend) processEvent(path string, mask uint32) {
	if b.opts.shouldIgnore(path) {
		return
	}

	op := opFromMask(mask)

	// Directories moved into the tree need watches just like new ones.
	if op == OpCreate && mask&unix.IN_ISDIR != 0 {
		if err := b.watchDir(path); err != nil {
			b.logger.Warn("failed to watch new directory", "path", path, "error", err)
		}
	}

	b.emitEvent(Event{Op: op, Paths: []string{path}})
}

// opFromMask reduces an inotify mask to a single Op.
// A path moved into a watched directory is reported as created, and the
// path it left as renamed, matching fsnotify.
func opFromMask(mask uint32) Op {
	switch {
	case mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0:
		return OpCreate
	case mask&unix.IN_MODIFY != 0:
		return OpModify
	case mask&(unix.IN_DELETE|unix.IN_DELETE_SELF) != 0:
		return OpRemove
	case mask&(unix.IN_MOVED_FROM|unix.IN_MOVE_SELF) != 0:
		return OpRename
	case mask&unix.IN_ATTRIB != 0:
		return OpChmod
	case mask&(unix.IN_CLOSE_WRITE|unix.IN_CLOSE_NOWRITE|unix.IN_ACCESS|unix.IN_OPEN) != 0:
		return OpAccess
	default:
		return OpOther
	}
}

func (b *inotifyBackend) emitEvent(event Event) {
	select {
	case b.events <- event:
	case <-b.done:
	}
}

func (b *inotifyBackend) emitError(err error) {
	select {
	case b.errors <- err:
	case <-b.done:
	default:
		b.logger.Debug("dropping watcher error, channel full", "error", err)
	}
}

// Events returns the events channel.
func (b *inotifyBackend) Events() <-chan Event {
	return b.events
}

// Errors returns the errors channel.
func (b *inotifyBackend) Errors() <-chan error {
	return b.errors
}

// Stop stops the watcher.
func (b *inotifyBackend) Stop() error {
	close(b.done)

	b.run.Stop()

	var closeErr error
	if b.fd >= 0 {
		closeErr = unix.Close(b.fd)
		b.fd = -1
	}

	close(b.events)
	close(b.errors)

	return closeErr
}

// clen returns the length of a null-terminated byte slice.
func clen(n []byte) int {
	for i := range n {
		if n[i] == 0 {
			return i
		}
	}
	return len(n)
}
