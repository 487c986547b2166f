package model

import "time"

// Reservation statuses.  pending and approved are the active states; a
// unit with an active reservation cannot be claimed again for an
// overlapping interval.  rejected and returned are terminal.
const (
    ReservationPending  = "pending"
    ReservationApproved = "approved"
    ReservationRejected = "rejected"
    ReservationReturned = "returned"
)

// Return classifications supplied by a manager when closing an approved
// reservation.
const (
    ReturnOK          = "ok"
    ReturnMaintenance = "maintenance"
)

// Reservation records a time-boxed claim on one equipment unit by one
// user.  It corresponds to a row in the `reservations` table.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user who requested the unit.
//  UnitID      – equipment unit being claimed.
//  StartTime   – start of the claim interval (UTC).
//  EndTime     – end of the claim interval (UTC, exclusive).
//  Status      – pending, approved, rejected or returned.
//  ReturnNotes – manager notes recorded at return time (nullable).
//  CreatedAt   – creation timestamp.
type Reservation struct {
    ID          uint64    // reservations.id
    UserID      uint64    // reservations.user_id
    UnitID      uint64    // reservations.unit_id
    StartTime   time.Time // reservations.start_time
    EndTime     time.Time // reservations.end_time
    Status      string    // reservations.status
    ReturnNotes *string   // reservations.return_notes (nullable)
    CreatedAt   time.Time // reservations.created_at
}

// Active reports whether the reservation is in a non-terminal state.
func (r *Reservation) Active() bool {
    return r.Status == ReservationPending || r.Status == ReservationApproved
}

// Overdue reports whether an approved reservation's interval has already
// ended at the given instant.
func (r *Reservation) Overdue(now time.Time) bool {
    return r.Status == ReservationApproved && r.EndTime.Before(now)
}

// CanTransition reports whether a reservation in state from may move to
// state to.  The legal edges are pending→approved, pending→rejected and
// approved→returned; everything else is refused so a manager cannot, for
// example, re-approve an already returned reservation.
func CanTransition(from, to string) bool {
    switch from {
    case ReservationPending:
        return to == ReservationApproved || to == ReservationRejected
    case ReservationApproved:
        return to == ReservationReturned
    }
    return false
}

// UnitStatusAfter resolves the unit status that must be written alongside
// a reservation transition.  For returns the manager's classification
// decides between available and maintenance; returnStatus is ignored for
// the other transitions.  ok is false when the inputs name no valid
// pairing.
func UnitStatusAfter(newStatus, returnStatus string) (string, bool) {
    switch newStatus {
    case ReservationApproved:
        return UnitReserved, true
    case ReservationRejected:
        return UnitAvailable, true
    case ReservationReturned:
        switch returnStatus {
        case ReturnOK:
            return UnitAvailable, true
        case ReturnMaintenance:
            return UnitMaintenance, true
        }
    }
    return "", false
}

// IntervalsOverlap reports whether two half-open intervals [aStart,aEnd)
// and [bStart,bEnd) intersect.  Touching endpoints do not conflict: a
// reservation ending at 10:00 coexists with one starting at 10:00.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
    return aEnd.After(bStart) && aStart.Before(bEnd)
}
