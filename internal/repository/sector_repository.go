package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/equip-control/internal/model"
)

// SectorRepo persists the named user groupings.
type SectorRepo struct{ DB *sql.DB }

func NewSectorRepo(db *sql.DB) *SectorRepo { return &SectorRepo{DB: db} }

// Create inserts a sector; duplicate names map to ErrConflict.
func (r *SectorRepo) Create(ctx context.Context, name string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx, "INSERT INTO sectors (name) VALUES (?)", name)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one sector.
func (r *SectorRepo) GetByID(ctx context.Context, id uint64) (model.Sector, error) {
	var s model.Sector
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,created_at FROM sectors WHERE id=? LIMIT 1", id).
		Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Sector{}, ErrNotFound
	}
	return s, err
}

// List returns all sectors ordered by name.
func (r *SectorRepo) List(ctx context.Context) ([]model.Sector, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id,name,created_at FROM sectors ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Sector
	for rows.Next() {
		var s model.Sector
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Rename updates a sector's unique name.
func (r *SectorRepo) Rename(ctx context.Context, id uint64, name string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE sectors SET name=? WHERE id=?", name, id)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return affectedOrNotFound(res)
}

// Delete removes a sector unless users still reference it.
func (r *SectorRepo) Delete(ctx context.Context, id uint64) error {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE sector_id=? LIMIT 1", id).Scan(&one)
	if err == nil {
		return ErrConflict
	}
	if err != sql.ErrNoRows {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sectors WHERE id=?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}
