package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/foldermon/foldermon/internal/errors"
)

// Sink receives raw events on the subscription's receive goroutine.
// It must not block for long; the OS buffer fills while it runs.
type Sink func(Event)

// Subscription is the owning handle for a recursive watch.
// The watch stays alive until Close is called.
type Subscription struct {
	id      string
	root    string
	watcher *Watcher
	logger  *slog.Logger
	onError func(error)
	onClose func()

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Subscribe establishes a recursive watch on root and starts the receive
// loop that hands every event to sink.
//
// Root must exist, be a directory and be readable; otherwise a SETUP_FAILED
// error is returned and nothing is started. Receive errors reported after
// setup are logged and the loop keeps running.
func Subscribe(logger *slog.Logger, root string, opts Options, sink Sink) (*Subscription, error) {
	root, err := validateRoot(root)
	if err != nil {
		return nil, err
	}

	w, err := New(logger, opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSetup, "failed to create watcher")
	}

	if err := w.Watch(root); err != nil {
		_ = w.Stop()
		return nil, errors.Wrapf(err, errors.CodeSetup, "failed to watch %s", root)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Subscription{
		id:      uuid.NewString(),
		root:    root,
		watcher: w,
		logger:  logger.With("subscription", root),
		onError: opts.OnError,
		onClose: opts.OnClose,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go w.Start(ctx) //nolint:errcheck // Start only returns nil once ctx ends
	go s.receive(ctx, sink)

	s.logger.Info("watching directory tree", "root", root, "backend", w.Backend(), "id", s.id)
	return s, nil
}

// validateRoot resolves root to an absolute path and checks it can be watched.
func validateRoot(root string) (string, error) {
	if root == "" {
		return "", errors.Setupf("watch root is empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeSetup, "failed to resolve watch root %s", root)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeSetup, "cannot access watch root %s", abs)
	}
	if !info.IsDir() {
		return "", errors.Setupf("watch root %s is not a directory", abs)
	}

	f, err := os.Open(abs)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeSetup, "cannot read watch root %s", abs)
	}
	defer f.Close() //nolint:errcheck // opened read-only

	if _, err := f.Readdirnames(1); err != nil && err != io.EOF {
		return "", errors.Wrapf(err, errors.CodeSetup, "cannot read watch root %s", abs)
	}

	return abs, nil
}

// receive forwards events to sink until the subscription is closed.
func (s *Subscription) receive(ctx context.Context, sink Sink) {
	defer close(s.done)

	events := s.watcher.Events()
	errs := s.watcher.Errors()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			sink(ev)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("watch error", "error", err)
			if s.onError != nil {
				s.onError(err)
			}
		}
	}
}

// ID returns the unique identifier of this subscription.
func (s *Subscription) ID() string {
	return s.id
}

// Root returns the absolute path of the watched tree.
func (s *Subscription) Root() string {
	return s.root
}

// Backend returns the backend kind serving this subscription.
func (s *Subscription) Backend() BackendKind {
	return s.watcher.Backend()
}

// Done is closed once the receive loop has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close stops the receive loop and releases the OS subscription.
// It is safe to call more than once; later calls return the first result.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
		<-s.done
		s.closeErr = s.watcher.Stop()
		s.logger.Info("stopped watching directory tree", "root", s.root)
	})
	return s.closeErr
}
