package model

import "time"

// Unit history event types.  The trail is append-only; rows disappear only
// when the unit itself is deleted.
const (
    HistoryCreated         = "created"
    HistoryReturnedOK      = "returned_ok"
    HistoryMaintenanceSent = "sent_to_maintenance"
)

// UnitHistory is one audit event in an equipment unit's life.
//
// Fields:
//  ID            – primary key identifier.
//  UnitID        – unit the event belongs to.
//  EventType     – created, returned_ok or sent_to_maintenance.
//  Notes         – free-text detail recorded with the event.
//  UserID        – acting user, when known (nullable).
//  ReservationID – reservation that triggered the event (nullable).
//  CreatedAt     – when the event happened.
type UnitHistory struct {
    ID            uint64    // unit_history.id
    UnitID        uint64    // unit_history.unit_id
    EventType     string    // unit_history.event_type
    Notes         string    // unit_history.notes
    UserID        *uint64   // unit_history.user_id (nullable)
    ReservationID *uint64   // unit_history.reservation_id (nullable)
    CreatedAt     time.Time // unit_history.created_at
}
