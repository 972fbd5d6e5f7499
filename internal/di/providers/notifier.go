package providers

import (
	"github.com/samber/do/v2"

	"github.com/foldermon/foldermon/internal/classifier"
	"github.com/foldermon/foldermon/internal/config"
	"github.com/foldermon/foldermon/internal/notifier"
	"github.com/foldermon/foldermon/internal/ratelimit"
)

// NotifierHandle wraps the rate-limited notifier and owns its limiter.
type NotifierHandle struct {
	notifier.Notifier
	limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *NotifierHandle) Shutdown() error {
	h.limiter.Stop()
	return nil
}

// ProvideNotifier provides the notification side effect: email when SMTP is
// configured, the application log otherwise.
func ProvideNotifier(i do.Injector) (*NotifierHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)
	c := do.MustInvoke[*classifier.Classifier](i)

	var next notifier.Notifier
	switch cfg.NotifyChannel() {
	case "email":
		subject := cfg.Email.Subject
		if subject == "" {
			subject = notifier.Subject(c.Label())
		}
		mailer, err := notifier.NewMailer(notifier.EmailSettings{
			Server:    cfg.Email.SMTPServer,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUser,
			Password:  cfg.Email.SMTPPassword,
			Sender:    cfg.Email.Sender,
			Recipient: cfg.Email.Recipient,
			SSL:       cfg.Email.SSL,
			Subject:   subject,
		}, log.Logger.Logger)
		if err != nil {
			return nil, err
		}
		next = mailer
	default:
		next = notifier.NewLogNotifier(log.Logger.Logger)
	}

	limiter := ratelimit.New(cfg.Notify.Rate, cfg.Notify.Burst)

	log.Info("Notifier ready",
		"channel", cfg.NotifyChannel(),
		"enabled", cfg.Notify.Enabled,
		"rate", cfg.Notify.Rate,
	)

	return &NotifierHandle{
		Notifier: notifier.NewThrottled(next, limiter),
		limiter:  limiter,
	}, nil
}
