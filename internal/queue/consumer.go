package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Sender delivers one rendered email.  The mailer package satisfies this;
// tests substitute a fake to capture what would have been sent.
type Sender interface {
    Send(ev EmailEvent) error
}

// StartNotificationConsumer connects to RabbitMQ, declares the durable
// notification queue and delivers each EmailEvent through the sender.  It
// runs a reconnect loop with exponential backoff and never returns under
// normal operation; malformed or undeliverable messages are rejected
// without requeue so one bad message cannot wedge the queue.
func StartNotificationConsumer(url string, sender Sender, log *zap.Logger) {
    runConsumer(url, NotificationQueue, log, func(body []byte) error {
        var ev EmailEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        if err := sender.Send(ev); err != nil {
            return fmt.Errorf("send %s to %s: %w", ev.Kind, ev.To, err)
        }
        log.Info("notification delivered", zap.String("kind", ev.Kind), zap.String("to", ev.To))
        return nil
    })
}

// StartCalendarConsumer drains the calendar queue and writes one iCalendar
// file per approved reservation into dir.  The export directory stands in
// for a remote calendar API; anything that can read .ics files can import
// the events.
func StartCalendarConsumer(url, dir string, log *zap.Logger) {
    runConsumer(url, CalendarQueue, log, func(body []byte) error {
        var ev CalendarEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        if err := writeICS(dir, ev); err != nil {
            return err
        }
        log.Info("calendar event exported", zap.Uint64("reservation_id", ev.ReservationID))
        return nil
    })
}

// runConsumer owns the dial/consume/reconnect cycle shared by both queues.
func runConsumer(url, queueName string, log *zap.Logger, handle func([]byte) error) {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn("broker dial failed", zap.String("queue", queueName), zap.Error(err), zap.Duration("retry_in", backoff))
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn, queueName, handle); err != nil {
            log.Warn("consume loop ended", zap.String("queue", queueName), zap.Error(err))
            _ = conn.Close()
            time.Sleep(2 * time.Second)
        }
    }
}

func consumeLoop(conn *amqp.Connection, queueName string, handle func([]byte) error) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        return fmt.Errorf("set qos: %w", err)
    }
    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handle(d.Body); err != nil {
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// writeICS renders a minimal VEVENT for the reservation.  Times arrive as
// RFC 3339 strings and are rewritten into the compact UTC form iCalendar
// expects; unparseable times fail the message.
func writeICS(dir string, ev CalendarEvent) error {
    start, err := time.Parse(time.RFC3339, ev.StartsAt)
    if err != nil {
        return fmt.Errorf("parse start: %w", err)
    }
    end, err := time.Parse(time.RFC3339, ev.EndsAt)
    if err != nil {
        return fmt.Errorf("parse end: %w", err)
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }

    const stamp = "20060102T150405Z"
    var b strings.Builder
    b.WriteString("BEGIN:VCALENDAR\r\n")
    b.WriteString("VERSION:2.0\r\n")
    b.WriteString("PRODID:-//equip-control//EN\r\n")
    b.WriteString("BEGIN:VEVENT\r\n")
    fmt.Fprintf(&b, "UID:reservation-%d@equip-control\r\n", ev.ReservationID)
    fmt.Fprintf(&b, "DTSTAMP:%s\r\n", time.Now().UTC().Format(stamp))
    fmt.Fprintf(&b, "DTSTART:%s\r\n", start.UTC().Format(stamp))
    fmt.Fprintf(&b, "DTEND:%s\r\n", end.UTC().Format(stamp))
    fmt.Fprintf(&b, "SUMMARY:Equipment reservation: %s\r\n", ev.Equipment)
    fmt.Fprintf(&b, "ATTENDEE:mailto:%s\r\n", ev.UserEmail)
    b.WriteString("END:VEVENT\r\n")
    b.WriteString("END:VCALENDAR\r\n")

    fpath := filepath.Join(dir, fmt.Sprintf("reservation-%d.ics", ev.ReservationID))
    return os.WriteFile(fpath, []byte(b.String()), 0o644)
}
