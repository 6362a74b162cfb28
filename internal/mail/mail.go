// Package mail renders and sends the service's emails.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/iliyamo/kita-magazine-reservation/internal/config"
)

// Message is a rendered email.  Template names the template it came from
// and labels the emails_sent_total metric.
type Message struct {
	To       string
	Subject  string
	Text     string
	HTML     string
	Template string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ErrDisabled is returned by NoopSender.
var ErrDisabled = errors.New("mail: sending disabled")

// NoopSender logs instead of sending.  It is used when no SMTP host is
// configured.
type NoopSender struct {
	Log zerolog.Logger
}

func (n NoopSender) Send(_ context.Context, msg Message) error {
	n.Log.Warn().Str("template", msg.Template).Str("subject", msg.Subject).Msg("smtp not configured, email not sent")
	return ErrDisabled
}

// SMTPSender sends through an SMTP relay with go-mail.  A connection is
// opened per message.
type SMTPSender struct {
	cfg  config.MailConfig
	opts []gomail.Option
}

// NewSMTPSender validates cfg and prepares the client options.
func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mail: SMTP_HOST not set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.Timeout),
	}
	switch cfg.TLS {
	case "mandatory":
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	case "none":
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if cfg.UseSSL {
		opts = append(opts, gomail.WithSSL())
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password))
	}
	return &SMTPSender{cfg: cfg, opts: opts}, nil
}

// build turns msg into a go-mail message with a plain text body and an
// HTML alternative.
func (s *SMTPSender) build(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("mail: from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail: to: %w", err)
	}
	if s.cfg.ReplyTo != "" {
		if err := m.ReplyTo(s.cfg.ReplyTo); err != nil {
			return nil, fmt.Errorf("mail: reply-to: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}
	c, err := gomail.NewClient(s.cfg.Host, s.opts...)
	if err != nil {
		return fmt.Errorf("mail: client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}

// New returns an SMTPSender when cfg names a host and a NoopSender
// otherwise.
func New(cfg config.MailConfig, log zerolog.Logger) (Sender, error) {
	if !cfg.Enabled() {
		return NoopSender{Log: log}, nil
	}
	return NewSMTPSender(cfg)
}
