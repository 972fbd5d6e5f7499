package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RawEvent("create")
	m.RawEvent("create")
	m.RawEvent("remove")
	m.WatchError()
	m.Classified("created")
	m.Filtered()
	m.DeliveryDropped("closed")
	m.Notification(true)
	m.Notification(false)
	m.Notification(false)

	assert.InDelta(t, 2, testutil.ToFloat64(m.rawEvents.WithLabelValues("create")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.rawEvents.WithLabelValues("remove")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.watchErrors), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.classifiedEvents.WithLabelValues("created")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.filteredEvents), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.deliveryDrops.WithLabelValues("closed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.notifications.WithLabelValues("sent")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.notifications.WithLabelValues("failed")), 0)
}

func TestMetrics_Gauges(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.SetQueueDepth(4)
	m.SetTracked(2, 7)

	assert.InDelta(t, 4, testutil.ToFloat64(m.queueDepth), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.trackedFiles), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.listedFiles), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RawEvent("create")
		m.WatchError()
		m.Classified("created")
		m.Filtered()
		m.DeliveryDropped("closed")
		m.SetQueueDepth(1)
		m.SetTracked(1, 1)
		m.Notification(true)
		m.SSEDropped("log.appended")
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Classified("deleted")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `foldermon_classifier_events_total{kind="deleted"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
