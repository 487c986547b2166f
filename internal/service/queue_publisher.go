// Package service bridges handlers and the message broker.  Publishing is
// fire-and-forget: errors are logged and returned so callers can ignore a
// broker outage without failing the request that triggered the message.
package service

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/equip-control/internal/queue"
)

// Publisher publishes domain events to RabbitMQ.  Each publish dials a
// fresh connection; notification volume is low enough that holding a
// long-lived channel is not worth the reconnect bookkeeping.
type Publisher struct {
    url string
    log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
    return &Publisher{url: url, log: log}
}

// Email enqueues an email event on the notification queue.
func (p *Publisher) Email(ctx context.Context, ev queue.EmailEvent) error {
    return p.publish(ctx, queue.NotificationQueue, ev)
}

// Calendar enqueues a calendar export event.
func (p *Publisher) Calendar(ctx context.Context, ev queue.CalendarEvent) error {
    return p.publish(ctx, queue.CalendarQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, event any) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        p.log.Warn("broker dial failed", zap.String("queue", queueName), zap.Error(err))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("channel open failed", zap.String("queue", queueName), zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    // Idempotent declare; durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        p.log.Warn("queue declare failed", zap.String("queue", queueName), zap.Error(err))
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        p.log.Warn("marshal event failed", zap.String("queue", queueName), zap.Error(err))
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
        p.log.Warn("publish failed", zap.String("queue", queueName), zap.Error(err))
        return err
    }
    return nil
}
