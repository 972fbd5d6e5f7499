package pipeline

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldermon/foldermon/internal/classifier"
	"github.com/foldermon/foldermon/internal/delivery"
	"github.com/foldermon/foldermon/internal/domain"
	"github.com/foldermon/foldermon/internal/metrics"
	"github.com/foldermon/foldermon/internal/notifier"
	"github.com/foldermon/foldermon/internal/tracker"
	"github.com/foldermon/foldermon/internal/watcher"
)

func newProducer(t *testing.T, opts delivery.Options) (*Producer, *delivery.Queue[domain.ClassifiedEvent], *metrics.Metrics, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	q := delivery.New[domain.ClassifiedEvent](opts)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	return NewProducer(classifier.New(".pdf"), q, m, logger), q, m, &buf
}

func TestProducer_EnqueuesInOrder(t *testing.T) {
	p, q, _, _ := newProducer(t, delivery.Options{})
	sink := p.Sink()

	sink(watcher.Event{Op: watcher.OpCreate, Paths: []string{"/watched/report.pdf"}})
	sink(watcher.Event{Op: watcher.OpModify, Paths: []string{"/watched/report.pdf"}})
	sink(watcher.Event{Op: watcher.OpRemove, Paths: []string{"/watched/report.pdf"}})

	got := q.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, domain.FileCreated, got[0].Kind)
	assert.Equal(t, "New PDF file created: report.pdf", got[0].Message)
	assert.Equal(t, domain.FileModified, got[1].Kind)
	assert.Equal(t, domain.FileDeleted, got[2].Kind)
}

func TestProducer_FilteredEventsAreSilent(t *testing.T) {
	p, q, m, buf := newProducer(t, delivery.Options{})

	p.Handle(watcher.Event{Op: watcher.OpCreate, Paths: []string{"/watched/notes.txt"}})
	p.Handle(watcher.Event{Op: watcher.OpChmod, Paths: []string{"/watched/report.pdf"}})
	p.Handle(watcher.Event{Op: watcher.OpCreate})

	assert.Zero(t, q.Len())
	assert.Empty(t, buf.String())

	expected := `
# HELP foldermon_classifier_filtered_total Total number of raw events rejected by the classifier
# TYPE foldermon_classifier_filtered_total counter
foldermon_classifier_filtered_total 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "foldermon_classifier_filtered_total"))
}

func TestProducer_ClosedQueueDropsAndLogs(t *testing.T) {
	p, q, _, buf := newProducer(t, delivery.Options{})
	q.Close()

	p.Handle(watcher.Event{Op: watcher.OpCreate, Paths: []string{"/watched/report.pdf"}})

	assert.Zero(t, q.Len())
	assert.Contains(t, buf.String(), "failed to deliver event")
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestProducer_FullQueueDrops(t *testing.T) {
	p, q, _, buf := newProducer(t, delivery.Options{Capacity: 1, Overflow: delivery.DropNewest})

	p.Handle(watcher.Event{Op: watcher.OpCreate, Paths: []string{"/watched/a.pdf"}})
	p.Handle(watcher.Event{Op: watcher.OpCreate, Paths: []string{"/watched/b.pdf"}})

	got := q.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "/watched/a.pdf", got[0].Path)
	assert.Contains(t, buf.String(), "delivery queue full")
}

func TestProducer_CloseReleasesSubscriptionOnFullBlockingQueue(t *testing.T) {
	p, q, _, buf := newProducer(t, delivery.Options{Capacity: 1, Overflow: delivery.Block})
	root := t.TempDir()

	var entered atomic.Int32
	sink := func(ev watcher.Event) {
		entered.Add(1)
		p.Handle(ev)
	}

	sub, err := watcher.Subscribe(slog.New(slog.NewTextHandler(io.Discard, nil)), root, watcher.Options{
		Backend: watcher.BackendFsnotify,
		OnClose: p.Close,
	}, sink)
	require.NoError(t, err)

	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("%PDF-1.7"), 0o644))
	}

	// The first event fills the queue; the receive loop then parks in Send.
	require.Eventually(t, func() bool {
		return q.Len() == 1 && entered.Load() >= 2
	}, 3*time.Second, 10*time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- sub.Close() }()

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatalf("Close hung with the receive loop blocked on a full queue (len=%d)", q.Len())
	}

	assert.True(t, q.Closed())
	assert.Len(t, q.Drain(), 1, "events queued before close stay drainable")
	assert.Contains(t, buf.String(), "failed to deliver event")
}

func TestProducer_UnmatchedExtensionNeverReachesTracker(t *testing.T) {
	p, q, _, _ := newProducer(t, delivery.Options{})
	dir := t.TempDir()
	var sent atomic.Int32
	tr := tracker.New(q, notifier.Func(func(context.Context, string) error { sent.Add(1); return nil }),
		tracker.DirLister{}, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracker.Options{Folder: dir, NotifyEnabled: true})
	t.Cleanup(func() { _ = tr.Close() })

	p.Handle(watcher.Event{Op: watcher.OpCreate, Paths: []string{filepath.Join(dir, "notes.txt")}})
	tr.Tick()

	snap := tr.Snapshot()
	assert.Empty(t, snap.Statuses)
	assert.Empty(t, snap.Log)
	assert.Zero(t, snap.Applied)
	assert.Zero(t, sent.Load())
}
