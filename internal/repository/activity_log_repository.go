package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/equip-control/internal/model"
)

// ActivityLogRepo writes the application audit trail.  Callers treat a
// failed write as non-fatal; a lost log line must never fail a request.
type ActivityLogRepo struct{ DB *sql.DB }

func NewActivityLogRepo(db *sql.DB) *ActivityLogRepo { return &ActivityLogRepo{DB: db} }

// Log records one audit event.
func (r *ActivityLogRepo) Log(ctx context.Context, userID *uint64, level, message string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO activity_logs (user_id, level, message) VALUES (?,?,?)",
		userID, level, message)
	return err
}

// audit log levels
const (
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// List returns recent audit rows, newest first.
func (r *ActivityLogRepo) List(ctx context.Context, limit, offset int) ([]model.ActivityLog, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,level,message,created_at FROM activity_logs ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ActivityLog
	for rows.Next() {
		var (
			l   model.ActivityLog
			uid sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &uid, &l.Level, &l.Message, &l.CreatedAt); err != nil {
			return nil, err
		}
		if uid.Valid {
			v := uint64(uid.Int64)
			l.UserID = &v
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
