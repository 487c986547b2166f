package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/equip-control/internal/model"
)

// EquipmentRepo persists equipment types and their physical units.  Unit
// status transitions that accompany reservation changes go through the Tx
// variants so the unit row stays locked for the whole decision.
type EquipmentRepo struct{ DB *sql.DB }

func NewEquipmentRepo(db *sql.DB) *EquipmentRepo { return &EquipmentRepo{DB: db} }

// ----- types -----

// CreateType inserts an equipment type; duplicate names map to ErrConflict.
func (r *EquipmentRepo) CreateType(ctx context.Context, name string, description *string, category string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO equipment_types (name, description, category) VALUES (?,?,?)",
		name, description, category)
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

// GetType fetches one equipment type.
func (r *EquipmentRepo) GetType(ctx context.Context, id uint64) (model.EquipmentType, error) {
	var (
		t    model.EquipmentType
		desc sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,description,category,created_at FROM equipment_types WHERE id=? LIMIT 1", id).
		Scan(&t.ID, &t.Name, &desc, &t.Category, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return model.EquipmentType{}, ErrNotFound
	}
	if err != nil {
		return model.EquipmentType{}, err
	}
	if desc.Valid {
		d := desc.String
		t.Description = &d
	}
	return t, nil
}

// ListTypeStats returns a page of types with per-status unit counts, and
// the total number of matching types.  Pending units count as reserved in
// the stats because they are equally unclaimable.
func (r *EquipmentRepo) ListTypeStats(ctx context.Context, search, category string, limit, offset int) ([]model.TypeStats, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if search != "" {
		where += " AND (t.name LIKE ? OR t.category LIKE ?)"
		pat := "%" + search + "%"
		args = append(args, pat, pat)
	}
	if category != "" && category != "all" {
		where += " AND t.category=?"
		args = append(args, category)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM equipment_types t "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT t.id, t.name, t.description, t.category, t.created_at,
	        COUNT(u.id),
	        COALESCE(SUM(u.status='available'),0),
	        COALESCE(SUM(u.status IN ('reserved','pending')),0),
	        COALESCE(SUM(u.status='maintenance'),0)
	      FROM equipment_types t
	      LEFT JOIN equipment_units u ON u.type_id = t.id ` + where + `
	      GROUP BY t.id ORDER BY t.name LIMIT ? OFFSET ?`
	listArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := r.DB.QueryContext(ctx, q, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.TypeStats
	for rows.Next() {
		var (
			st   model.TypeStats
			desc sql.NullString
		)
		if err := rows.Scan(&st.Type.ID, &st.Type.Name, &desc, &st.Type.Category, &st.Type.CreatedAt,
			&st.TotalUnits, &st.AvailableUnits, &st.ReservedUnits, &st.MaintenanceUnits); err != nil {
			return nil, 0, err
		}
		if desc.Valid {
			d := desc.String
			st.Type.Description = &d
		}
		out = append(out, st)
	}
	return out, total, rows.Err()
}

// ListCategories returns the distinct equipment categories in use.
func (r *EquipmentRepo) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT DISTINCT category FROM equipment_types ORDER BY category")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateType sets name, description and category of a type.
func (r *EquipmentRepo) UpdateType(ctx context.Context, id uint64, name string, description *string, category string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE equipment_types SET name=?, description=?, category=? WHERE id=?",
		name, description, category, id)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return affectedOrNotFound(res)
}

// DeleteType removes a type and cascades to its units and their history.
// Types with a unit under an active reservation cannot be deleted.
func (r *EquipmentRepo) DeleteType(ctx context.Context, id uint64) error {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM reservations res
		  JOIN equipment_units u ON u.id = res.unit_id
		 WHERE u.type_id=? AND res.status IN ('pending','approved') LIMIT 1`, id).Scan(&one)
	if err == nil {
		return ErrConflict
	}
	if err != sql.ErrNoRows {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM equipment_types WHERE id=?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// ----- units -----

// CreateUnit inserts a physical unit in available status.  Duplicate
// identifier codes or serial numbers map to ErrConflict.
func (r *EquipmentRepo) CreateUnit(ctx context.Context, typeID uint64, identifierCode, serialNumber string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO equipment_units (type_id, identifier_code, serial_number, status) VALUES (?,?,?,?)",
		typeID, identifierCode, serialNumber, model.UnitAvailable)
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

// GetUnit fetches one unit.
func (r *EquipmentRepo) GetUnit(ctx context.Context, id uint64) (model.EquipmentUnit, error) {
	var u model.EquipmentUnit
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,type_id,identifier_code,serial_number,status FROM equipment_units WHERE id=? LIMIT 1", id).
		Scan(&u.ID, &u.TypeID, &u.IdentifierCode, &u.SerialNumber, &u.Status)
	if err == sql.ErrNoRows {
		return model.EquipmentUnit{}, ErrNotFound
	}
	return u, err
}

// GetUnitForUpdate fetches a unit inside tx with its row locked, so the
// status check and the paired status write cannot race with a concurrent
// reservation on the same unit.
func (r *EquipmentRepo) GetUnitForUpdate(ctx context.Context, tx *sql.Tx, id uint64) (model.EquipmentUnit, error) {
	var u model.EquipmentUnit
	err := tx.QueryRowContext(ctx,
		"SELECT id,type_id,identifier_code,serial_number,status FROM equipment_units WHERE id=? FOR UPDATE", id).
		Scan(&u.ID, &u.TypeID, &u.IdentifierCode, &u.SerialNumber, &u.Status)
	if err == sql.ErrNoRows {
		return model.EquipmentUnit{}, ErrNotFound
	}
	return u, err
}

// ListUnitsByType returns all units of a type ordered by identifier code.
func (r *EquipmentRepo) ListUnitsByType(ctx context.Context, typeID uint64) ([]model.EquipmentUnit, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,type_id,identifier_code,serial_number,status FROM equipment_units WHERE type_id=? ORDER BY identifier_code",
		typeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.EquipmentUnit
	for rows.Next() {
		var u model.EquipmentUnit
		if err := rows.Scan(&u.ID, &u.TypeID, &u.IdentifierCode, &u.SerialNumber, &u.Status); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUnit sets the identifier code and serial number of a unit.
func (r *EquipmentRepo) UpdateUnit(ctx context.Context, id uint64, identifierCode, serialNumber string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE equipment_units SET identifier_code=?, serial_number=? WHERE id=?",
		identifierCode, serialNumber, id)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return affectedOrNotFound(res)
}

// SetUnitStatusTx writes the cached unit status inside the caller's
// transaction, paired with the reservation transition that justifies it.
func (r *EquipmentRepo) SetUnitStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx, "UPDATE equipment_units SET status=? WHERE id=?", status, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// DeleteUnit removes a unit unless an active reservation references it.
func (r *EquipmentRepo) DeleteUnit(ctx context.Context, id uint64) error {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM reservations WHERE unit_id=? AND status IN ('pending','approved') LIMIT 1", id).Scan(&one)
	if err == nil {
		return ErrConflict
	}
	if err != sql.ErrNoRows {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM equipment_units WHERE id=?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}
