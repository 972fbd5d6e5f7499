// Package tracker keeps the last known state of every watched file, the
// append-only event log and the folder listing shown to users.
//
// All state is owned by the consumer: the goroutine that calls Tick (or Run).
// Other goroutines read through Snapshot and change settings through the
// atomic setters, which take effect on the next tick.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/foldermon/foldermon/internal/delivery"
	"github.com/foldermon/foldermon/internal/domain"
	"github.com/foldermon/foldermon/internal/errors"
	"github.com/foldermon/foldermon/internal/metrics"
	"github.com/foldermon/foldermon/internal/notifier"
	"github.com/foldermon/foldermon/internal/sse"
)

// DefaultNotifyTimeout bounds a single notification attempt.
const DefaultNotifyTimeout = 30 * time.Second

// Options configures a Tracker.
type Options struct {
	// Folder is the directory whose listing is published.
	Folder        string
	NotifyEnabled bool
	NotifyTimeout time.Duration
}

type notifyResult struct {
	message string
	err     error
}

// Tracker applies classified events to the status map.
type Tracker struct {
	events   *delivery.Queue[domain.ClassifiedEvent]
	outbox   *delivery.Queue[string]
	results  *delivery.Queue[notifyResult]
	notifier notifier.Notifier
	lister   Lister
	emitter  sse.Emitter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time

	notifyTimeout time.Duration
	notifyEnabled atomic.Bool
	retarget      atomic.Pointer[string]
	wake          chan struct{}
	snapshot      atomic.Pointer[Snapshot]

	// Consumer-owned state.
	folder   string
	statuses map[string]domain.FileEventKind
	log      []domain.LogEntry
	listing  []string
	listErr  string
	applied  uint64
	pending  int
	dirty    bool

	cancel       context.CancelFunc
	dispatchDone chan struct{}
	closed       atomic.Bool
}

// New creates a tracker consuming events and starts its notification
// dispatcher. The initial listing is published before New returns.
// emitter and m may be nil.
func New(
	events *delivery.Queue[domain.ClassifiedEvent],
	n notifier.Notifier,
	lister Lister,
	emitter sse.Emitter,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts Options,
) *Tracker {
	if emitter == nil {
		emitter = sse.NoopEmitter{}
	}
	if lister == nil {
		lister = DirLister{}
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = DefaultNotifyTimeout
	}

	folder := opts.Folder
	if abs, err := filepath.Abs(folder); err == nil {
		folder = abs
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		events:        events,
		outbox:        delivery.New[string](delivery.Options{}),
		results:       delivery.New[notifyResult](delivery.Options{}),
		notifier:      n,
		lister:        lister,
		emitter:       emitter,
		metrics:       m,
		logger:        logger,
		validate:      validator.New(),
		now:           time.Now,
		notifyTimeout: opts.NotifyTimeout,
		wake:          make(chan struct{}, 1),
		folder:        folder,
		statuses:      make(map[string]domain.FileEventKind),
		cancel:        cancel,
		dispatchDone:  make(chan struct{}),
	}
	t.notifyEnabled.Store(opts.NotifyEnabled)

	go t.dispatch(ctx)

	t.rescan()
	t.publish()
	return t
}

// Apply processes one event: it appends a log entry, updates the status map,
// rescans the folder and, when notifications are enabled, schedules one.
// Apply must be called from the consumer goroutine.
func (t *Tracker) Apply(ev domain.ClassifiedEvent) {
	t.apply(ev)
	t.rescan()
	t.publish()
}

func (t *Tracker) apply(ev domain.ClassifiedEvent) {
	t.appendLog(ev.Message, ev.Kind.Severity())

	switch ev.Kind {
	case domain.FileCreated, domain.FileModified:
		t.statuses[ev.Path] = ev.Kind
	case domain.FileDeleted:
		delete(t.statuses, ev.Path)
	}
	t.applied++
	t.dirty = true

	t.emitter.Emit(sse.NewFileEvent(ev, filepath.Base(ev.Path)))

	if t.notifyEnabled.Load() {
		t.schedule(ev.Message)
	}
}

// schedule hands a message to the dispatcher. The outcome is logged on a later tick.
func (t *Tracker) schedule(message string) {
	if err := t.outbox.Send(message); err != nil {
		t.metrics.Notification(false)
		t.appendLog("Failed to send notification: "+err.Error(), domain.SeverityError)
		return
	}
	t.pending++
}

// Tick runs one consumer step without blocking: it applies a pending
// retarget, drains and applies all queued events in order, records finished
// notifications and publishes a new snapshot.
func (t *Tracker) Tick() {
	changed := t.applyRetarget()

	t.metrics.SetQueueDepth(t.events.Len())
	batch := t.events.Drain()
	for _, ev := range batch {
		t.apply(ev)
	}
	if len(batch) > 0 || changed {
		t.rescan()
	}

	for _, res := range t.results.Drain() {
		t.pending--
		if res.err != nil {
			t.metrics.Notification(false)
			t.appendLog("Failed to send notification: "+res.err.Error(), domain.SeverityError)
			continue
		}
		t.metrics.Notification(true)
		t.appendLog("Notification sent: "+res.message, domain.SeverityInfo)
	}

	t.publish()
}

// Run ticks until ctx is cancelled, waking on new events, finished
// notifications, setting changes or every interval.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		t.Tick()
		select {
		case <-ctx.Done():
			return nil
		case <-t.events.Ready():
		case <-t.results.Ready():
		case <-t.wake:
		case <-ticker.C:
		}
	}
}

// Flush ticks until every scheduled notification has a logged outcome or ctx ends.
// Like Tick it must be called from the consumer goroutine.
func (t *Tracker) Flush(ctx context.Context) error {
	t.Tick()
	for t.pending > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.results.Ready():
		}
		t.Tick()
	}
	return nil
}

// Snapshot returns the state published by the last tick.
func (t *Tracker) Snapshot() Snapshot {
	s := *t.snapshot.Load()
	s.NotifyEnabled = t.notifyEnabled.Load()
	return s
}

// NotifyEnabled reports whether notifications are sent for new events.
func (t *Tracker) NotifyEnabled() bool {
	return t.notifyEnabled.Load()
}

// SetNotifyEnabled changes the notify flag. Events applied after the call observe it.
func (t *Tracker) SetNotifyEnabled(enabled bool) {
	if t.notifyEnabled.Swap(enabled) == enabled {
		return
	}
	t.logger.Info("notifications toggled", "enabled", enabled)
	t.emitter.Emit(sse.NewSettingsEvent(enabled))
	t.poke()
}

// Retarget schedules a new listing folder, applied on the next tick.
// The watched tree does not move.
func (t *Tracker) Retarget(folder string) error {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return errors.Validation("invalid folder path").WithCause(err)
	}
	if err := t.validate.Var(abs, "required,dir"); err != nil {
		return errors.ValidationWithDetails("folder does not exist or is not a directory",
			map[string]any{"path": abs})
	}

	t.retarget.Store(&abs)
	t.poke()
	return nil
}

func (t *Tracker) applyRetarget() bool {
	next := t.retarget.Swap(nil)
	if next == nil || *next == t.folder {
		return false
	}
	t.logger.Info("listing folder changed", "from", t.folder, "to", *next)
	t.folder = *next
	t.listErr = ""
	t.emitter.Emit(sse.NewFolderEvent(*next))
	return true
}

func (t *Tracker) poke() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Close stops the dispatcher. Notifications still queued fail with a
// cancellation error. Close does not close the event queue.
func (t *Tracker) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.outbox.Close()
	t.cancel()
	<-t.dispatchDone
	t.results.Close()
	return nil
}

// Shutdown flushes in-flight notifications and then closes the tracker.
func (t *Tracker) Shutdown(ctx context.Context) error {
	if err := t.Flush(ctx); err != nil {
		t.logger.Warn("notifications still pending at shutdown", "pending", t.pending, "error", err)
	}
	return t.Close()
}

// dispatch delivers scheduled notifications one at a time until the outbox
// is closed and empty.
func (t *Tracker) dispatch(ctx context.Context) {
	defer close(t.dispatchDone)

	for {
		for _, msg := range t.outbox.Drain() {
			nctx, cancel := context.WithTimeout(ctx, t.notifyTimeout)
			err := t.notify(nctx, msg)
			cancel()
			_ = t.results.Send(notifyResult{message: msg, err: err})
		}

		if t.outbox.Closed() && t.outbox.Len() == 0 {
			return
		}
		<-t.outbox.Ready()
	}
}

func (t *Tracker) notify(ctx context.Context, msg string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.notifier.Notify(ctx, msg)
}

func (t *Tracker) appendLog(message string, severity domain.Severity) {
	entry := domain.LogEntry{
		Seq:      uint64(len(t.log)) + 1,
		Time:     t.now(),
		Message:  message,
		Severity: severity,
	}
	t.log = append(t.log, entry)
	t.emitter.Emit(sse.NewLogEvent(entry))
}

// rescan refreshes the listing. A folder that cannot be read lists as empty.
func (t *Tracker) rescan() {
	names, err := t.lister.List(t.folder)
	if err != nil {
		if msg := err.Error(); msg != t.listErr {
			t.listErr = msg
			t.logger.Warn("failed to list folder", "folder", t.folder, "error", err)
		}
		names = nil
	} else {
		t.listErr = ""
	}
	t.listing = names
	t.dirty = true
}

// publish stores a new snapshot when anything changed since the last one.
// The status map is read together with the listing, so a snapshot never
// pairs a map from one tick with a listing from another.
func (t *Tracker) publish() {
	prev := t.snapshot.Load()
	if prev != nil && !t.dirty && len(prev.Log) == len(t.log) && prev.Pending == t.pending {
		return
	}

	files := make([]FileStatus, len(t.listing))
	for i, name := range t.listing {
		path := filepath.Join(t.folder, name)
		files[i] = FileStatus{Name: name, Path: path, Kind: t.statuses[path]}
	}

	statuses := maps.Clone(t.statuses)
	t.snapshot.Store(&Snapshot{
		UpdatedAt: t.now(),
		Statuses:  statuses,
		Folder:    t.folder,
		Files:     files,
		// Entries past len are never visible to readers of this slice.
		Log:     t.log[:len(t.log):len(t.log)],
		Applied: t.applied,
		Pending: t.pending,
	})
	t.dirty = false
	t.metrics.SetTracked(len(statuses), len(files))
}
