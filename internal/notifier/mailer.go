package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/foldermon/foldermon/internal/errors"
)

// EmailSettings holds SMTP connection and addressing details.
type EmailSettings struct {
	Server    string
	Port      int
	Username  string
	Password  string
	Sender    string
	Recipient string
	// SSL selects implicit TLS; otherwise STARTTLS is mandatory.
	SSL     bool
	Subject string
	Timeout time.Duration
}

// Subject returns the default subject for a file label, e.g. "PDF File Update Notification".
func Subject(label string) string {
	return label + " File Update Notification"
}

// Mailer sends each message as a plain-text email.
type Mailer struct {
	settings EmailSettings
	logger   *slog.Logger
	options  []mail.Option
}

// NewMailer validates settings and prepares client options.
func NewMailer(settings EmailSettings, logger *slog.Logger) (*Mailer, error) {
	if settings.Server == "" {
		return nil, errors.Validation("smtp server is required")
	}
	if settings.Sender == "" || settings.Recipient == "" {
		return nil, errors.Validation("sender and recipient are required")
	}
	if settings.Subject == "" {
		settings.Subject = Subject("File")
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}

	// Fail fast on malformed addresses.
	msg := mail.NewMsg()
	if err := msg.From(settings.Sender); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "invalid sender address")
	}
	if err := msg.To(settings.Recipient); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "invalid recipient address")
	}

	opts := []mail.Option{
		mail.WithTimeout(settings.Timeout),
	}
	if settings.Port > 0 {
		opts = append(opts, mail.WithPort(settings.Port))
	}
	if settings.SSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if settings.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(settings.Username),
			mail.WithPassword(settings.Password),
		)
	}

	return &Mailer{
		settings: settings,
		logger:   logger,
		options:  opts,
	}, nil
}

// Message builds the email for a notification body.
func (m *Mailer) Message(body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.settings.Sender); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(m.settings.Recipient); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(m.settings.Subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// Notify dials the SMTP server and sends body.
func (m *Mailer) Notify(ctx context.Context, body string) error {
	msg, err := m.Message(body)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.settings.Server, m.options...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email via %s: %w", m.settings.Server, err)
	}

	m.logger.Debug("email sent", "recipient", m.settings.Recipient)
	return nil
}
