package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/equip-control/internal/model"
)

// ReservationRepo persists reservations.  Lifecycle writes (create,
// transition) run inside handler-owned transactions together with the
// paired equipment-unit status update; read paths use the pool directly.
type ReservationRepo struct{ DB *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

const reservationColumns = "id,user_id,unit_id,start_time,end_time,status,return_notes,created_at"

func scanReservation(scan func(dest ...interface{}) error) (model.Reservation, error) {
	var (
		res   model.Reservation
		notes sql.NullString
	)
	err := scan(&res.ID, &res.UserID, &res.UnitID, &res.StartTime, &res.EndTime,
		&res.Status, &notes, &res.CreatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	if notes.Valid {
		n := notes.String
		res.ReturnNotes = &n
	}
	return res, nil
}

// GetByID fetches one reservation.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := scanReservation(r.DB.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id=? LIMIT 1", id).Scan)
	if err == sql.ErrNoRows {
		return model.Reservation{}, ErrNotFound
	}
	return res, err
}

// GetForUpdate fetches a reservation inside tx with its row locked.
func (r *ReservationRepo) GetForUpdate(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
	res, err := scanReservation(tx.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id=? FOR UPDATE", id).Scan)
	if err == sql.ErrNoRows {
		return model.Reservation{}, ErrNotFound
	}
	return res, err
}

// ActiveForUnitTx returns every pending or approved reservation on a unit,
// read inside the caller's transaction.  The handler checks the requested
// interval against these rows; with the unit row locked the read cannot
// race with a concurrent create on the same unit.
func (r *ReservationRepo) ActiveForUnitTx(ctx context.Context, tx *sql.Tx, unitID uint64) ([]model.Reservation, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE unit_id=? AND status IN ('pending','approved')",
		unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// CreateTx inserts a pending reservation inside the caller's transaction
// and populates the generated ID.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	result, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (user_id, unit_id, start_time, end_time, status) VALUES (?,?,?,?,?)",
		res.UserID, res.UnitID, res.StartTime.UTC(), res.EndTime.UTC(), model.ReservationPending)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	res.Status = model.ReservationPending
	return nil
}

// UpdateStatusTx writes the new reservation status, and return notes when
// present, inside the caller's transaction.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string, returnNotes *string) error {
	var (
		res sql.Result
		err error
	)
	if returnNotes != nil {
		res, err = tx.ExecContext(ctx,
			"UPDATE reservations SET status=?, return_notes=? WHERE id=?", status, *returnNotes, id)
	} else {
		res, err = tx.ExecContext(ctx,
			"UPDATE reservations SET status=? WHERE id=?", status, id)
	}
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// HasActiveByUser reports whether the user owns any pending or approved
// reservation.  Used by the account deletion guards.
func (r *ReservationRepo) HasActiveByUser(ctx context.Context, userID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM reservations WHERE user_id=? AND status IN ('pending','approved') LIMIT 1",
		userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser returns a page of the user's reservations, optionally
// filtered by status ("overdue" selects approved reservations whose end
// time has passed), newest interval first, plus the total count.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, status string, limit, offset int) ([]model.Reservation, int, error) {
	where := "WHERE user_id=?"
	args := []interface{}{userID}
	switch status {
	case "", "all":
	case "overdue":
		where += " AND status='approved' AND end_time < ?"
		args = append(args, time.Now().UTC())
	default:
		where += " AND status=?"
		args = append(args, status)
	}
	return r.list(ctx, where, args, limit, offset)
}

// ListAll returns a page of every reservation in the system with the same
// status filtering rules as ListByUser.  Manager-facing.
func (r *ReservationRepo) ListAll(ctx context.Context, status string, limit, offset int) ([]model.Reservation, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	switch status {
	case "", "all":
	case "overdue":
		where += " AND status='approved' AND end_time < ?"
		args = append(args, time.Now().UTC())
	default:
		where += " AND status=?"
		args = append(args, status)
	}
	return r.list(ctx, where, args, limit, offset)
}

// ListHistoryByUser returns the user's full reservation history, newest
// first, without pagination.  Manager-facing.
func (r *ReservationRepo) ListHistoryByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	out, _, err := r.list(ctx, "WHERE user_id=?", []interface{}{userID}, 1000, 0)
	return out, err
}

// ListUpcomingByUser returns the user's next approved reservations that
// have not started yet, soonest first.
func (r *ReservationRepo) ListUpcomingByUser(ctx context.Context, userID uint64, limit int) ([]model.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE user_id=? AND status='approved' AND start_time > ? ORDER BY start_time LIMIT ?",
		userID, time.Now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *ReservationRepo) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]model.Reservation, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	listArgs := append(append([]interface{}{}, args...), limit, offset)
	// Pending first, then approved, then terminal states; newest interval
	// first within each bucket.
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations "+where+
			" ORDER BY FIELD(status,'approved','pending') DESC, start_time DESC LIMIT ? OFFSET ?",
		listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, res)
	}
	return out, total, rows.Err()
}
