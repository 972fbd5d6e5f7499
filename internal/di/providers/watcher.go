package providers

import (
	"github.com/samber/do/v2"

	"github.com/foldermon/foldermon/internal/classifier"
	"github.com/foldermon/foldermon/internal/config"
	"github.com/foldermon/foldermon/internal/id"
	"github.com/foldermon/foldermon/internal/metrics"
	"github.com/foldermon/foldermon/internal/pipeline"
	"github.com/foldermon/foldermon/internal/watcher"
)

// Session identifies one run of the process.
type Session string

// ProvideSession provides the process session ID.
func ProvideSession(_ do.Injector) (Session, error) {
	return Session(id.Session()), nil
}

// SubscriptionHandle wraps the watch subscription with Shutdownable.
// Sub is nil when setup failed; the rest of the application keeps running.
type SubscriptionHandle struct {
	Sub     *watcher.Subscription
	err     error
	root    string
	backend string
	session Session
}

// Active reports whether the watch is running.
func (h *SubscriptionHandle) Active() bool {
	return h.Sub != nil
}

// Root returns the watched root.
func (h *SubscriptionHandle) Root() string {
	if h.Sub != nil {
		return h.Sub.Root()
	}
	return h.root
}

// Backend returns the resolved backend, or the configured one when inactive.
func (h *SubscriptionHandle) Backend() string {
	if h.Sub != nil {
		return string(h.Sub.Backend())
	}
	return h.backend
}

// Session returns the process session ID.
func (h *SubscriptionHandle) Session() string {
	return string(h.session)
}

// Err returns the setup failure, if any.
func (h *SubscriptionHandle) Err() error {
	return h.err
}

// Shutdown implements do.Shutdownable. Closing the subscription also closes
// the event queue; events already queued are still applied by the tracker flush.
func (h *SubscriptionHandle) Shutdown() error {
	if h.Sub == nil {
		return nil
	}
	return h.Sub.Close()
}

// ProvideSubscription provides the recursive watch feeding the event queue.
// It depends on the tracker so that the watch stops before the tracker flushes.
func ProvideSubscription(i do.Injector) (*SubscriptionHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	c := do.MustInvoke[*classifier.Classifier](i)
	queue := do.MustInvoke[*EventQueue](i)
	session := do.MustInvoke[Session](i)
	_ = do.MustInvoke[*TrackerHandle](i)

	backend, err := watcher.ParseBackend(cfg.Watch.Backend)
	if err != nil {
		return nil, err
	}

	producer := pipeline.NewProducer(c, queue.Queue, m, log.Logger.Logger)

	sub, err := watcher.Subscribe(log.Logger.Logger, cfg.FolderPath, watcher.Options{
		Backend:        backend,
		IgnorePatterns: cfg.Watch.IgnorePatterns,
		IgnoreHidden:   cfg.Watch.IgnoreHidden,
		OnError:        func(error) { m.WatchError() },
		// Closing the queue releases a receive loop blocked on a full block-policy queue.
		OnClose:        producer.Close,
	}, producer.Sink())
	if err != nil {
		// Non-fatal: the listing and API still work without live events.
		log.Error("Failed to start watching, continuing without live events",
			"folder", cfg.FolderPath,
			"error", err,
		)
		return &SubscriptionHandle{
			err:     err,
			root:    cfg.FolderPath,
			backend: string(backend),
			session: session,
		}, nil
	}

	return &SubscriptionHandle{Sub: sub, session: session}, nil
}
