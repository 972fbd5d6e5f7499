package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/foldermon/foldermon/internal/classifier"
	"github.com/foldermon/foldermon/internal/config"
	"github.com/foldermon/foldermon/internal/delivery"
	"github.com/foldermon/foldermon/internal/domain"
	"github.com/foldermon/foldermon/internal/metrics"
	"github.com/foldermon/foldermon/internal/sse"
)

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(_ do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Manager.Shutdown(ctx)
	h.cancel()
	return err
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*LoggerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	manager := sse.NewManager(log.Logger.Logger)
	manager.OnDrop(func(t sse.EventType) { m.SSEDropped(string(t)) })

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// ProvideClassifier provides the event classifier for the configured extension.
func ProvideClassifier(i do.Injector) (*classifier.Classifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return classifier.New(cfg.Watch.Extension), nil
}

// EventQueue carries classified events from the watcher to the tracker.
type EventQueue struct {
	*delivery.Queue[domain.ClassifiedEvent]
}

// Shutdown implements do.Shutdownable.
func (q *EventQueue) Shutdown() error {
	q.Close()
	return nil
}

// ProvideEventQueue provides the delivery queue.
func ProvideEventQueue(i do.Injector) (*EventQueue, error) {
	cfg := do.MustInvoke[*config.Config](i)

	overflow, err := delivery.ParseOverflow(cfg.Watch.QueueOverflow)
	if err != nil {
		return nil, err
	}

	return &EventQueue{
		Queue: delivery.New[domain.ClassifiedEvent](delivery.Options{
			Capacity: cfg.Watch.QueueCapacity,
			Overflow: overflow,
		}),
	}, nil
}
