// Package service holds the email dispatch policy shared by the handlers.
package service

import (
    "context"

    "github.com/rs/zerolog"

    "github.com/iliyamo/kita-magazine-reservation/internal/mail"
    "github.com/iliyamo/kita-magazine-reservation/internal/metrics"
    "github.com/iliyamo/kita-magazine-reservation/internal/queue"
)

// EventPublisher is implemented by *queue.Publisher.
type EventPublisher interface {
    PublishReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) error
}

// Notifier sends the confirmation emails.  With a publisher the
// reservation confirmation goes through the broker and the mail consumer;
// without one, or when publishing fails, it is sent directly.
type Notifier struct {
    Publisher EventPublisher
    Sender    mail.Sender
    Metrics   *metrics.Metrics
}

// NewNotifier wires a notifier.  pub may be nil.
func NewNotifier(pub *queue.Publisher, sender mail.Sender, m *metrics.Metrics) *Notifier {
    n := &Notifier{Sender: sender, Metrics: m}
    if pub != nil {
        n.Publisher = pub
    }
    return n
}

// ReservationCreated reports whether the confirmation was handed off
// (queued or sent).  Failures are logged, never returned.
func (n *Notifier) ReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) bool {
    log := zerolog.Ctx(ctx).With().Str("op", "notifier.ReservationCreated").Str("reservation_id", ev.ReservationID).Logger()
    if n.Publisher != nil {
        err := n.Publisher.PublishReservationCreated(ctx, ev)
        if err == nil {
            return true
        }
        log.Warn().Err(err).Msg("publish failed, sending directly")
    }
    msg, err := mail.RenderReservation(ev.MailData())
    if err != nil {
        log.Error().Err(err).Msg("render confirmation")
        return false
    }
    return n.send(ctx, log, msg)
}

// DataDeleted sends the erasure confirmation directly.
func (n *Notifier) DataDeleted(ctx context.Context, d mail.DeletionData) bool {
    log := zerolog.Ctx(ctx).With().Str("op", "notifier.DataDeleted").Logger()
    msg, err := mail.RenderDeletion(d)
    if err != nil {
        log.Error().Err(err).Msg("render deletion confirmation")
        return false
    }
    return n.send(ctx, log, msg)
}

func (n *Notifier) send(ctx context.Context, log zerolog.Logger, msg mail.Message) bool {
    if n.Sender == nil {
        return false
    }
    err := n.Sender.Send(ctx, msg)
    n.Metrics.EmailSent(msg.Template, err)
    if err != nil {
        log.Error().Err(err).Str("template", msg.Template).Msg("email not sent")
        return false
    }
    return true
}
