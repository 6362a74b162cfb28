package queue

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/goccy/go-json"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    "github.com/iliyamo/kita-magazine-reservation/internal/mail"
    "github.com/iliyamo/kita-magazine-reservation/internal/metrics"
)

// MailConsumer turns reservation.created messages into confirmation
// emails.
type MailConsumer struct {
    URL     string
    Sender  mail.Sender
    Log     zerolog.Logger
    Metrics *metrics.Metrics
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are re-established with exponential backoff capped at 30s.
func (mc *MailConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(mc.URL)
        if err != nil {
            mc.Log.Warn().Err(err).Dur("retry_in", backoff).Msg("mail-consumer: dial failed")
            select {
            case <-ctx.Done():
                return ctx.Err()
            case <-time.After(backoff):
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = mc.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        mc.Log.Warn().Err(err).Msg("mail-consumer: consume loop ended, reconnecting")
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(2 * time.Second):
        }
    }
}

func (mc *MailConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(10, 0, false); err != nil {
        mc.Log.Warn().Err(err).Msg("mail-consumer: set QoS failed")
    }
    if err := declare(ch); err != nil {
        return err
    }
    msgs, err := ch.Consume(ReservationCreatedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    mc.Log.Info().Str("queue", ReservationCreatedQueue).Msg("mail-consumer: listening")

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            mc.deliver(ctx, d)
        }
    }
}

func (mc *MailConsumer) deliver(ctx context.Context, d amqp.Delivery) {
    err := mc.HandleMessage(ctx, d.Body)
    switch {
    case err == nil:
        _ = d.Ack(false)
    case errors.Is(err, errBadPayload):
        mc.Log.Error().Err(err).Msg("mail-consumer: dropping message")
        _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
    default:
        mc.Log.Error().Err(err).Msg("mail-consumer: send failed, requeueing")
        _ = d.Nack(false, !d.Redelivered)
    }
}

var errBadPayload = errors.New("bad payload")

// HandleMessage decodes one event and sends the confirmation.
func (mc *MailConsumer) HandleMessage(ctx context.Context, body []byte) error {
    var ev ReservationCreatedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("%w: %v", errBadPayload, err)
    }
    if ev.ReservationID == "" || ev.Email == "" {
        return fmt.Errorf("%w: missing reservation_id or email", errBadPayload)
    }
    msg, err := mail.RenderReservation(ev.MailData())
    if err != nil {
        return fmt.Errorf("%w: render: %v", errBadPayload, err)
    }
    err = mc.Sender.Send(ctx, msg)
    mc.Metrics.EmailSent(msg.Template, err)
    if err != nil {
        return err
    }
    mc.Log.Info().Str("reservation_id", ev.ReservationID).Msg("mail-consumer: confirmation sent")
    return nil
}
