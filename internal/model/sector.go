package model

import "time"

// Sector is a named grouping for users (a department or team).  Its only
// invariant is the unique name.
type Sector struct {
    ID        uint64    // sectors.id
    Name      string    // sectors.name
    CreatedAt time.Time // sectors.created_at
}

// ActivityLog is one row of the application audit trail.  Levels follow
// the conventional INFO/WARNING/ERROR split.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – acting user, when known (nullable).
//  Level     – INFO, WARNING or ERROR.
//  Message   – human-readable description of the event.
//  CreatedAt – when the event was recorded.
type ActivityLog struct {
    ID        uint64    // activity_logs.id
    UserID    *uint64   // activity_logs.user_id (nullable)
    Level     string    // activity_logs.level
    Message   string    // activity_logs.message
    CreatedAt time.Time // activity_logs.created_at
}

// CalendarToken stores a user's external calendar OAuth credential as an
// opaque JSON blob.  One row per user at most.
type CalendarToken struct {
    ID        uint64    // calendar_tokens.id
    UserID    uint64    // calendar_tokens.user_id
    TokenJSON string    // calendar_tokens.token_json
    CreatedAt time.Time // calendar_tokens.created_at
}
