// Package queue defines message payloads exchanged over the message broker
// and the background consumers that drain them.
package queue

// Queue names used by the API.  Both are declared durable so messages
// survive a broker restart.
const (
    NotificationQueue = "equip.notifications"
    CalendarQueue     = "equip.calendar"
)

// Email event kinds.  The kind selects the template the consumer renders.
const (
    KindVerification     = "verification"
    KindPasswordReset    = "password_reset"
    KindReservationNew   = "reservation_new"
    KindManagerAlert     = "manager_alert"
    KindStatusChange     = "status_change"
    KindReturnReceipt    = "return_receipt"
    KindOverdueReminder  = "overdue_reminder"
)

// EmailEvent is published whenever the API wants a mail sent.  It carries
// everything the consumer needs to render and address the message so the
// consumer never has to query the primary database.
type EmailEvent struct {
    Kind          string `json:"kind"`
    To            string `json:"to"`
    Username      string `json:"username"`
    Token         string `json:"token,omitempty"`           // verification / reset link token
    ReservationID uint64 `json:"reservation_id,omitempty"`
    Equipment     string `json:"equipment,omitempty"`       // "<type name> #<serial>"
    StartsAt      string `json:"starts_at,omitempty"`       // RFC 3339
    EndsAt        string `json:"ends_at,omitempty"`         // RFC 3339
    Status        string `json:"status,omitempty"`          // new reservation status
    Notes         string `json:"notes,omitempty"`           // manager notes, if any
}

// CalendarEvent is published when an approved reservation should appear in
// the requester's calendar export.
type CalendarEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    UserID        uint64 `json:"user_id"`
    UserEmail     string `json:"user_email"`
    Equipment     string `json:"equipment"`
    StartsAt      string `json:"starts_at"` // RFC 3339
    EndsAt        string `json:"ends_at"`   // RFC 3339
}
