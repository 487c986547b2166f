package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/equip-control/internal/model"
)

// UnitHistoryRepo appends and reads the per-unit audit trail.  Rows are
// never updated; they vanish only through the unit's cascade delete.
type UnitHistoryRepo struct{ DB *sql.DB }

func NewUnitHistoryRepo(db *sql.DB) *UnitHistoryRepo { return &UnitHistoryRepo{DB: db} }

// AppendTx records an event inside the caller's transaction so the event
// commits atomically with the transition that caused it.
func (r *UnitHistoryRepo) AppendTx(ctx context.Context, tx *sql.Tx, ev model.UnitHistory) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO unit_history (unit_id, event_type, notes, user_id, reservation_id) VALUES (?,?,?,?,?)",
		ev.UnitID, ev.EventType, ev.Notes, ev.UserID, ev.ReservationID)
	return err
}

// Append records an event outside any transaction (unit creation).
func (r *UnitHistoryRepo) Append(ctx context.Context, ev model.UnitHistory) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO unit_history (unit_id, event_type, notes, user_id, reservation_id) VALUES (?,?,?,?,?)",
		ev.UnitID, ev.EventType, ev.Notes, ev.UserID, ev.ReservationID)
	return err
}

// ListByUnit returns a unit's events, newest first.
func (r *UnitHistoryRepo) ListByUnit(ctx context.Context, unitID uint64) ([]model.UnitHistory, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,unit_id,event_type,notes,user_id,reservation_id,created_at FROM unit_history WHERE unit_id=? ORDER BY created_at DESC",
		unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.UnitHistory
	for rows.Next() {
		var (
			ev     model.UnitHistory
			userID sql.NullInt64
			resID  sql.NullInt64
		)
		if err := rows.Scan(&ev.ID, &ev.UnitID, &ev.EventType, &ev.Notes, &userID, &resID, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			v := uint64(userID.Int64)
			ev.UserID = &v
		}
		if resID.Valid {
			v := uint64(resID.Int64)
			ev.ReservationID = &v
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
