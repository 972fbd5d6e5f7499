package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// fsnotifyBackend implements Backend using fsnotify.
// fsnotify watches single directories, so the tree is walked on Watch and
// directories created later are added as their create events arrive.
type fsnotifyBackend struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	events chan Event
	errors chan error
	done   chan struct{}
	run    runGroup
}

func newFsnotifyBackend(logger *slog.Logger, opts Options) (*fsnotifyBackend, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &fsnotifyBackend{
		logger:  logger,
		opts:    opts,
		watcher: watcher,
		events:  make(chan Event, opts.BufferSize),
		errors:  make(chan error, 16),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a directory tree to be monitored.
func (b *fsnotifyBackend) Watch(path string) error {
	return b.watchDir(filepath.Clean(path))
}

// watchDir recursively watches a directory.
// Only a failure on root itself is returned.
func (b *fsnotifyBackend) watchDir(root string) error {
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

		if err := b.watcher.Add(p); err != nil {
			if p == root {
				return fmt.Errorf("failed to add watch: %w", err)
			}
			b.logger.Error("failed to add watch", "path", p, "error", err)
			return nil
		}

		b.logger.Debug("added watch", "path", p)
		return nil
	})
}

// Start begins watching for events.
func (b *fsnotifyBackend) Start(ctx context.Context) error {
	if !b.run.Go(func() { b.processEvents(ctx) }) {
		return nil
	}

	<-ctx.Done()
	return nil
}

// processEvents forwards fsnotify events until shutdown.
func (b *fsnotifyBackend) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			b.handleFsnotifyEvent(event)
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			b.emitError(err)
		}
	}
}

func (b *fsnotifyBackend) handleFsnotifyEvent(event fsnotify.Event) {
	path := event.Name
	if path == "" || b.opts.shouldIgnore(path) {
		return
	}

	op := opFromFsnotify(event.Op)

	if op == OpCreate {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := b.watchDir(path); err != nil {
				b.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
		}
	}

	b.emitEvent(Event{Op: op, Paths: []string{path}})
}

// opFromFsnotify reduces an fsnotify bitmask to a single Op.
func opFromFsnotify(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpModify
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	case op.Has(fsnotify.Chmod):
		return OpChmod
	default:
		return OpOther
	}
}

func (b *fsnotifyBackend) emitEvent(event Event) {
	select {
	case b.events <- event:
	case <-b.done:
	}
}

func (b *fsnotifyBackend) emitError(err error) {
	select {
	case b.errors <- err:
	case <-b.done:
	default:
		b.logger.Debug("dropping watcher error, channel full", "error", err)
	}
}

// Events returns the events channel.
func (b *fsnotifyBackend) Events() <-chan Event {
	return b.events
}

// Errors returns the errors channel.
func (b *fsnotifyBackend) Errors() <-chan error {
	return b.errors
}

// Stop stops the watcher.
func (b *fsnotifyBackend) Stop() error {
	close(b.done)

	closeErr := b.watcher.Close()

	b.run.Stop()

	close(b.events)
	close(b.errors)

	return closeErr
}
