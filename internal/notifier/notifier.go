// Package notifier delivers per-event notification messages.
// A notifier only attempts delivery and reports the outcome; callers decide
// what to do with a failure.
package notifier

import (
	"context"
	"log/slog"

	"github.com/foldermon/foldermon/internal/ratelimit"
)

// Notifier delivers one plain-text message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, message string) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}

// LogNotifier writes messages to the application log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs each message at info.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the message.
func (n *LogNotifier) Notify(_ context.Context, message string) error {
	n.logger.Info("notification", "message", message)
	return nil
}

// throttleKey is the single bucket shared by all notifications.
const throttleKey = "notify"

// Throttled delays notifications so that next is not called faster than the limiter allows.
type Throttled struct {
	next    Notifier
	limiter *ratelimit.KeyedRateLimiter
}

// NewThrottled wraps next with limiter.
func NewThrottled(next Notifier, limiter *ratelimit.KeyedRateLimiter) *Throttled {
	return &Throttled{next: next, limiter: limiter}
}

// Notify waits for a token and then delivers the message.
func (t *Throttled) Notify(ctx context.Context, message string) error {
	if err := t.limiter.Wait(ctx, throttleKey); err != nil {
		return err
	}
	return t.next.Notify(ctx, message)
}
