// Package mailer renders and sends the system's outbound email.  All mail
// flows through the queue consumer; handlers never talk to SMTP directly.
package mailer

import (
    "fmt"

    gomail "gopkg.in/gomail.v2"

    "github.com/iliyamo/equip-control/internal/config"
    "github.com/iliyamo/equip-control/internal/queue"
)

// Mailer wraps a gomail dialer.  A nil Mailer (no SMTP configured) drops
// messages silently so the rest of the system works without a mail server.
type Mailer struct {
    dialer *gomail.Dialer
    from   string
    base   string // public base URL used in links
}

// New builds a Mailer from config.  It returns nil when SMTP_USERNAME is
// empty, which callers treat as "mail disabled".
func New(cfg config.Config, baseURL string) *Mailer {
    if cfg.SMTPUser == "" || cfg.SMTPHost == "" {
        return nil
    }
    d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
    if cfg.SMTPStartTLS {
        d.SSL = false
    }
    from := cfg.SMTPFrom
    if from == "" {
        from = cfg.SMTPUser
    }
    return &Mailer{dialer: d, from: from, base: baseURL}
}

// Send renders the event into a message and delivers it.  Unknown kinds
// are an error so a bad publisher shows up in the consumer's logs.
func (m *Mailer) Send(ev queue.EmailEvent) error {
    if m == nil {
        return nil
    }
    subject, body, err := m.render(ev)
    if err != nil {
        return err
    }
    msg := gomail.NewMessage()
    msg.SetHeader("From", m.from)
    msg.SetHeader("To", ev.To)
    msg.SetHeader("Subject", subject)
    msg.SetBody("text/plain", body)
    return m.dialer.DialAndSend(msg)
}

func (m *Mailer) render(ev queue.EmailEvent) (subject, body string, err error) {
    switch ev.Kind {
    case queue.KindVerification:
        subject = "Verify your email address"
        body = fmt.Sprintf("Hello %s,\n\nConfirm your account by opening the link below within 24 hours:\n\n%s/auth/verify-email?token=%s\n",
            ev.Username, m.base, ev.Token)
    case queue.KindPasswordReset:
        subject = "Password reset request"
        body = fmt.Sprintf("Hello %s,\n\nReset your password by opening the link below. The link expires in 15 minutes.\n\n%s/auth/reset-password?token=%s\n\nIf you did not request this, ignore this message.\n",
            ev.Username, m.base, ev.Token)
    case queue.KindReservationNew:
        subject = "Reservation received"
        body = fmt.Sprintf("Hello %s,\n\nYour reservation #%d for %s from %s to %s was received and is awaiting approval.\n",
            ev.Username, ev.ReservationID, ev.Equipment, ev.StartsAt, ev.EndsAt)
    case queue.KindManagerAlert:
        subject = "New reservation awaiting review"
        body = fmt.Sprintf("Hello %s,\n\nReservation #%d for %s (%s to %s) is pending approval.\n",
            ev.Username, ev.ReservationID, ev.Equipment, ev.StartsAt, ev.EndsAt)
    case queue.KindStatusChange:
        subject = fmt.Sprintf("Reservation %s", ev.Status)
        body = fmt.Sprintf("Hello %s,\n\nYour reservation #%d for %s is now %s.",
            ev.Username, ev.ReservationID, ev.Equipment, ev.Status)
        if ev.Notes != "" {
            body += fmt.Sprintf("\n\nNotes: %s", ev.Notes)
        }
        body += "\n"
    case queue.KindReturnReceipt:
        subject = "Equipment returned"
        body = fmt.Sprintf("Hello %s,\n\nThe return of %s on reservation #%d has been recorded.",
            ev.Username, ev.Equipment, ev.ReservationID)
        if ev.Notes != "" {
            body += fmt.Sprintf("\n\nNotes: %s", ev.Notes)
        }
        body += "\n"
    case queue.KindOverdueReminder:
        subject = "Equipment overdue"
        body = fmt.Sprintf("Hello %s,\n\nReservation #%d for %s ended on %s and the equipment has not been returned. Please return it as soon as possible.\n",
            ev.Username, ev.ReservationID, ev.Equipment, ev.EndsAt)
    default:
        return "", "", fmt.Errorf("unknown email kind %q", ev.Kind)
    }
    return subject, body, nil
}
