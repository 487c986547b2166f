package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/equip-control/internal/model"
)

// This file narrows the repository surface each handler depends on.  The
// repository types satisfy these interfaces; tests substitute in-memory
// fakes, the same seam the authorization middleware uses.

// UserStore is the account surface of the authentication endpoints.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string, sectorID *uint64) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateLoginState(ctx context.Context, id uint64, attempts int, active bool) error
	MarkVerified(ctx context.Context, id uint64) error
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
}

// TokenRevoker blacklists an access token's jti until the token's own
// expiry.  A second revocation of the same jti returns ErrConflict.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// SectorFinder resolves sector references on registration and profile
// updates.
type SectorFinder interface {
	GetByID(ctx context.Context, id uint64) (model.Sector, error)
}

// ProfileStore is the account surface of the self-service endpoints.
type ProfileStore interface {
	UpdateProfile(ctx context.Context, id uint64, username string, sectorID *uint64) error
	Delete(ctx context.Context, id uint64) error
}

// ReservationGuard reports whether an account still owns a pending or
// approved reservation.  Accounts that do cannot be deleted.
type ReservationGuard interface {
	HasActiveByUser(ctx context.Context, userID uint64) (bool, error)
}

// UserDirectory is the account surface of the admin endpoints.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, search string, role *model.Role, sectorID *uint64, active *bool, limit, offset int) ([]model.User, int, error)
	SetActive(ctx context.Context, id uint64, active bool) error
	SetRole(ctx context.Context, id uint64, role model.Role) error
	SetSector(ctx context.Context, id uint64, sectorID *uint64) error
}

// ReservationStore is the reservation surface of the admin endpoints.
type ReservationStore interface {
	ReservationGuard
	GetByID(ctx context.Context, id uint64) (model.Reservation, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string, returnNotes *string) error
	ListAll(ctx context.Context, status string, limit, offset int) ([]model.Reservation, int, error)
	ListHistoryByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
}
