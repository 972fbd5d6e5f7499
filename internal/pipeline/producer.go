// Package pipeline connects the watcher to the delivery queue.
package pipeline

import (
	"log/slog"

	"github.com/foldermon/foldermon/internal/classifier"
	"github.com/foldermon/foldermon/internal/delivery"
	"github.com/foldermon/foldermon/internal/domain"
	"github.com/foldermon/foldermon/internal/errors"
	"github.com/foldermon/foldermon/internal/metrics"
	"github.com/foldermon/foldermon/internal/watcher"
)

// Producer classifies raw events and enqueues the accepted ones.
// Handle runs on the watcher's receive goroutine, which makes it the queue's only producer.
type Producer struct {
	classifier *classifier.Classifier
	queue      *delivery.Queue[domain.ClassifiedEvent]
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewProducer creates a producer. m may be nil.
func NewProducer(c *classifier.Classifier, q *delivery.Queue[domain.ClassifiedEvent], m *metrics.Metrics, logger *slog.Logger) *Producer {
	return &Producer{
		classifier: c,
		queue:      q,
		metrics:    m,
		logger:     logger,
	}
}

// Sink returns Handle as a watcher sink.
func (p *Producer) Sink() watcher.Sink {
	return p.Handle
}

// Close stops delivery. A Handle blocked on a full block-policy queue
// returns, and later events are dropped as closed. Pass it as the
// subscription's OnClose so closing the watch cannot hang.
func (p *Producer) Close() {
	p.queue.Close()
}

// Handle classifies ev and enqueues the result. Filtered events are only
// logged at debug; a failed send is logged and the event is dropped.
func (p *Producer) Handle(ev watcher.Event) {
	p.metrics.RawEvent(ev.Op.String())

	classified, ok := p.classifier.Classify(ev)
	if !ok {
		p.metrics.Filtered()
		path, _ := ev.Path()
		p.logger.Debug("event filtered", "op", ev.Op, "path", path)
		return
	}

	p.metrics.Classified(classified.Kind.String())

	if err := p.queue.Send(classified); err != nil {
		reason := "full"
		if errors.Is(err, delivery.ErrClosed) {
			reason = "closed"
		}
		p.metrics.DeliveryDropped(reason)
		p.logger.Error("failed to deliver event, dropping it",
			"path", classified.Path,
			"kind", classified.Kind,
			"error", err)
	}
}
