package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/syncthing/notify"
)

// notifyBackend implements Backend using syncthing/notify.
// Recursion is native ("root/..."), so new directories need no extra work.
type notifyBackend struct {
	logger *slog.Logger
	opts   Options

	raw  chan notify.EventInfo
	mu   sync.Mutex
	live bool

	events chan Event
	errors chan error
	done   chan struct{}
	run    runGroup
}

func newNotifyBackend(logger *slog.Logger, opts Options) (*notifyBackend, error) {
	return &notifyBackend{
		logger: logger,
		opts:   opts,
		// notify drops events when the receiver is full, so buffer generously.
		raw:    make(chan notify.EventInfo, opts.BufferSize*4),
		events: make(chan Event, opts.BufferSize),
		errors: make(chan error, 16),
		done:   make(chan struct{}),
	}, nil
}

// Watch adds a directory tree to be monitored.
func (b *notifyBackend) Watch(path string) error {
	recursive := filepath.Join(filepath.Clean(path), "...")
	if err := notify.Watch(recursive, b.raw, notify.All); err != nil {
		return err
	}

	b.mu.Lock()
	b.live = true
	b.mu.Unlock()

	b.logger.Debug("added recursive watch", "path", path)
	return nil
}

// Start begins watching for events.
func (b *notifyBackend) Start(ctx context.Context) error {
	if !b.run.Go(func() { b.processEvents(ctx) }) {
		return nil
	}

	<-ctx.Done()
	return nil
}

func (b *notifyBackend) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case ei := <-b.raw:
			path := ei.Path()
			if path == "" || b.opts.shouldIgnore(path) {
				continue
			}
			b.emitEvent(Event{Op: resolveRename(opFromNotify(ei.Event()), path), Paths: []string{path}})
		}
	}
}

// opFromNotify maps a notify event to an Op.
func opFromNotify(ev notify.Event) Op {
	switch {
	case ev&notify.Create != 0:
		return OpCreate
	case ev&notify.Write != 0:
		return OpModify
	case ev&notify.Remove != 0:
		return OpRemove
	case ev&notify.Rename != 0:
		return OpRename
	default:
		return OpOther
	}
}

// resolveRename reports a renamed path that now exists as created.
// notify uses one Rename flag for both ends of a move; the other backends
// report the arriving end as a create.
func resolveRename(op Op, path string) Op {
	if op != OpRename {
		return op
	}
	if _, err := os.Lstat(path); err == nil {
		return OpCreate
	}
	return op
}

func (b *notifyBackend) emitEvent(event Event) {
	select {
	case b.events <- event:
	case <-b.done:
	}
}

// Events returns the events channel.
func (b *notifyBackend) Events() <-chan Event {
	return b.events
}

// Errors returns the errors channel.
// notify reports no receive-side errors; the channel only closes on Stop.
func (b *notifyBackend) Errors() <-chan error {
	return b.errors
}

// Stop releases every watch registered on this backend.
func (b *notifyBackend) Stop() error {
	close(b.done)

	b.mu.Lock()
	if b.live {
		notify.Stop(b.raw)
		b.live = false
	}
	b.mu.Unlock()

	b.run.Stop()

	close(b.events)
	close(b.errors)

	return nil
}
