package queue

import (
    "context"
    "fmt"
    "time"

    "github.com/goccy/go-json"
    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends events to RabbitMQ.  Each publish opens its own
// connection.
type Publisher struct {
    url string
}

// NewPublisher returns a Publisher for url, or nil when url is empty.
func NewPublisher(url string) *Publisher {
    if url == "" {
        return nil
    }
    return &Publisher{url: url}
}

// PublishReservationCreated publishes ev to the reservation.created queue
// as a persistent message.
func (p *Publisher) PublishReservationCreated(ctx context.Context, ev ReservationCreatedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("queue: marshal event: %w", err)
    }
    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
    if err != nil {
        return fmt.Errorf("queue: dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("queue: channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := declare(ch); err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        MessageId:    ev.ReservationID,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", ReservationCreatedQueue, false, false, pub); err != nil {
        return fmt.Errorf("queue: publish: %w", err)
    }
    return nil
}

// declare makes sure the durable queue exists.
func declare(ch *amqp.Channel) error {
    if _, err := ch.QueueDeclare(
        ReservationCreatedQueue, // name
        true,                    // durable
        false,                   // autoDelete
        false,                   // exclusive
        false,                   // noWait
        nil,                     // args
    ); err != nil {
        return fmt.Errorf("queue: declare: %w", err)
    }
    return nil
}
