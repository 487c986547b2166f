package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/equip-control/internal/model"
)

// CalendarTokenRepo stores per-user external calendar credentials.  At
// most one row exists per user; Save replaces any previous credential.
type CalendarTokenRepo struct{ DB *sql.DB }

func NewCalendarTokenRepo(db *sql.DB) *CalendarTokenRepo { return &CalendarTokenRepo{DB: db} }

// Save upserts the credential blob for a user.
func (r *CalendarTokenRepo) Save(ctx context.Context, userID uint64, tokenJSON string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO calendar_tokens (user_id, token_json) VALUES (?,?) ON DUPLICATE KEY UPDATE token_json=VALUES(token_json)",
		userID, tokenJSON)
	return err
}

// Get returns the stored credential for a user or ErrNotFound.
func (r *CalendarTokenRepo) Get(ctx context.Context, userID uint64) (model.CalendarToken, error) {
	var t model.CalendarToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,token_json,created_at FROM calendar_tokens WHERE user_id=?", userID).
		Scan(&t.ID, &t.UserID, &t.TokenJSON, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return model.CalendarToken{}, ErrNotFound
	}
	return t, err
}

// Delete removes a user's credential.  Deleting a missing row is not an
// error; disconnect is idempotent.
func (r *CalendarTokenRepo) Delete(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM calendar_tokens WHERE user_id=?", userID)
	return err
}
