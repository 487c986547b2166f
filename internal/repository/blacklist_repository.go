package repository

import (
	"context"
	"database/sql"
	"time"
)

// BlacklistRepo persists revoked access tokens keyed by their jti claim.
// Every authenticated request consults it, so the jti column carries a
// unique index.
type BlacklistRepo struct{ DB *sql.DB }

func NewBlacklistRepo(db *sql.DB) *BlacklistRepo { return &BlacklistRepo{DB: db} }

// IsRevoked reports whether the given jti has been blacklisted.
func (r *BlacklistRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM token_blacklist WHERE jti=? LIMIT 1", jti).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Revoke records a token's jti with its original expiry.  Revoking the
// same token twice returns ErrConflict, distinct from a plain auth
// failure.
func (r *BlacklistRepo) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO token_blacklist (jti, expires_at) VALUES (?,?)", jti, expiresAt)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// PurgeExpired deletes rows whose original expiry has passed; a revoked
// token past its exp can no longer authenticate anyway.  Returns the
// number of rows reaped.
func (r *BlacklistRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM token_blacklist WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
