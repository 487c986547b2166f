package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/equip-control/internal/model"
)

// UserRepo persists user accounts.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,password_hash,role,sector_id,is_active,is_verified,otp_secret,otp_enabled,terms_accepted,terms_accepted_at,login_attempts,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u         model.User
		sectorID  sql.NullInt64
		otpSecret sql.NullString
		termsAt   sql.NullTime
		role      string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &sectorID,
		&u.IsActive, &u.IsVerified, &otpSecret, &u.OTPEnabled,
		&u.TermsAccepted, &termsAt, &u.LoginAttempts, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	if sectorID.Valid {
		v := uint64(sectorID.Int64)
		u.SectorID = &v
	}
	if otpSecret.Valid {
		s := otpSecret.String
		u.OTPSecret = &s
	}
	if termsAt.Valid {
		t := termsAt.Time
		u.TermsAcceptedAt = &t
	}
	return u, nil
}

// Create inserts a new, inactive and unverified user and returns its ID.
// Terms acceptance is stamped at creation time.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string, sectorID *uint64) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role, sector_id, is_active, is_verified, terms_accepted, terms_accepted_at)
		 VALUES (?,?,?,?,?,FALSE,FALSE,TRUE,?)`,
		username, email, passwordHash, model.RoleUser.String(), sectorID, time.Now().UTC())
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// UpdateLoginState persists the failed-attempt counter and active flag
// after a login attempt.
func (r *UserRepo) UpdateLoginState(ctx context.Context, id uint64, attempts int, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET login_attempts=?, is_active=? WHERE id=?", attempts, active, id)
	return err
}

// MarkVerified activates an account after email verification.
func (r *UserRepo) MarkVerified(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_verified=TRUE, is_active=TRUE WHERE id=?", id)
	return err
}

// UpdatePasswordHash replaces the stored bcrypt hash.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}

// UpdateProfile sets the username and sector reference.  A nil sectorID
// clears the association.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, username string, sectorID *uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET username=?, sector_id=? WHERE id=?", username, sectorID, id)
	return err
}

// SetRole changes a user's permission level.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role model.Role) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role.String(), id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// SetActive toggles the account's active flag.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// SetSector assigns or clears the user's sector.
func (r *UserRepo) SetSector(ctx context.Context, id uint64, sectorID *uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET sector_id=? WHERE id=?", sectorID, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// SetTOTP stores the shared secret and enabled flag for the second factor.
func (r *UserRepo) SetTOTP(ctx context.Context, id uint64, secret *string, enabled bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET otp_secret=?, otp_enabled=? WHERE id=?", secret, enabled, id)
	return err
}

// Delete removes a user.  The caller is responsible for the active
// reservation guard; the guard and the delete do not need to share a
// transaction because a user gaining a reservation mid-delete only makes
// the delete fail on the foreign key, never orphan a reservation.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// ListManagersAndAdmins returns every user that must be notified about new
// reservation requests.
func (r *UserRepo) ListManagersAndAdmins(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,username,email,role FROM users WHERE role IN (?,?) AND is_active=TRUE",
		model.RoleManager.String(), model.RoleAdmin.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		var u model.User
		var role string
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &role); err != nil {
			return nil, err
		}
		u.Role = model.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

// List returns a page of users filtered by optional search text, role,
// sector and active flag, plus the unfiltered-by-page total.
func (r *UserRepo) List(ctx context.Context, search string, role *model.Role, sectorID *uint64, active *bool, limit, offset int) ([]model.User, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if search != "" {
		where += " AND (username LIKE ? OR email LIKE ?)"
		pat := "%" + search + "%"
		args = append(args, pat, pat)
	}
	if role != nil {
		where += " AND role=?"
		args = append(args, role.String())
	}
	if sectorID != nil {
		where += " AND sector_id=?"
		args = append(args, *sectorID)
	}
	if active != nil {
		where += " AND is_active=?"
		args = append(args, *active)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users "+where+" ORDER BY id LIMIT ? OFFSET ?", listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var (
			u         model.User
			sectorRef sql.NullInt64
			otpSecret sql.NullString
			termsAt   sql.NullTime
			roleStr   string
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &roleStr, &sectorRef,
			&u.IsActive, &u.IsVerified, &otpSecret, &u.OTPEnabled,
			&u.TermsAccepted, &termsAt, &u.LoginAttempts, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		u.Role = model.Role(roleStr)
		if sectorRef.Valid {
			v := uint64(sectorRef.Int64)
			u.SectorID = &v
		}
		if otpSecret.Valid {
			s := otpSecret.String
			u.OTPSecret = &s
		}
		if termsAt.Valid {
			t := termsAt.Time
			u.TermsAcceptedAt = &t
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// affectedOrNotFound converts a zero-row update/delete into ErrNotFound.
func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
