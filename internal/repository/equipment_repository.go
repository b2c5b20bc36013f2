package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/serverroom/inventory/internal/model"
	"github.com/serverroom/inventory/internal/validate"
)

// EquipmentRepo provides data access to rack-mounted equipment. Create
// and Update run inside a transaction that locks the target rack row,
// so the read of existing spans, the conflict check and the write are
// serialized per rack: two concurrent placements into the same units
// cannot both succeed (one sees the other's committed row and fails
// with a conflict).
type EquipmentRepo struct {
	db *sql.DB
}

// NewEquipmentRepo returns a new EquipmentRepo bound to the provided database.
func NewEquipmentRepo(db *sql.DB) *EquipmentRepo { return &EquipmentRepo{db: db} }

const equipmentColumns = "id, rack_id, name, size, start_unit, created_at, updated_at"

func scanEquipment(row interface{ Scan(...any) error }, e *model.Equipment) error {
	return row.Scan(&e.ID, &e.RackID, &e.Name, &e.Size, &e.StartUnit, &e.CreatedAt, &e.UpdatedAt)
}

// lockRack takes a row lock on the rack inside tx, serializing
// placement against concurrent writers to the same rack. Returns
// ErrRackNotFound when the rack does not exist.
func lockRack(ctx context.Context, tx *sql.Tx, rackID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM racks WHERE id = ? FOR UPDATE", rackID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRackNotFound
	}
	return err
}

// spansInRack loads the occupied spans of a rack within tx. The rack
// row is already locked, so the snapshot cannot go stale before commit.
func spansInRack(ctx context.Context, tx *sql.Tx, rackID uint64) ([]validate.PlacedSpan, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, start_unit, size FROM equipment WHERE rack_id = ?", rackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spans []validate.PlacedSpan
	for rows.Next() {
		var p validate.PlacedSpan
		if err := rows.Scan(&p.EquipmentID, &p.StartUnit, &p.Size); err != nil {
			return nil, err
		}
		spans = append(spans, p)
	}
	return spans, rows.Err()
}

// checkPlacement applies the span bound and the overlap rule. The
// 1..42 bound holds for create and update alike. Out-of-range spans
// wrap ErrInvalidSpan so they map to the same status code, but the
// message names the bound the caller actually violated.
func checkPlacement(existing []validate.PlacedSpan, candidate validate.Span, excludeID uint64) error {
	if !candidate.Valid() {
		return validate.ErrInvalidSpan
	}
	if !candidate.FitsRack() {
		return fmt.Errorf("units %d-%d exceed the %d-unit rack: %w",
			candidate.StartUnit, candidate.End(), validate.RackUnits, validate.ErrInvalidSpan)
	}
	return validate.CanPlace(existing, candidate, excludeID)
}

// Create mounts a new piece of equipment in a rack. Returns
// ErrRackNotFound, validate.ErrInvalidSpan or *validate.ConflictError;
// on any error nothing is written.
func (r *EquipmentRepo) Create(ctx context.Context, rackID uint64, name string, span validate.Span) (*model.Equipment, error) {
	if !span.Valid() {
		return nil, validate.ErrInvalidSpan
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockRack(ctx, tx, rackID); err != nil {
		return nil, err
	}
	existing, err := spansInRack(ctx, tx, rackID)
	if err != nil {
		return nil, err
	}
	if err := checkPlacement(existing, span, 0); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO equipment (rack_id, name, size, start_unit) VALUES (?, ?, ?, ?)",
		rackID, name, span.Size, span.StartUnit)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	var e model.Equipment
	err = scanEquipment(tx.QueryRowContext(ctx,
		"SELECT "+equipmentColumns+" FROM equipment WHERE id = ?", id), &e)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &e, nil
}

// Update moves or resizes a piece of equipment, possibly into another
// rack. The conflict check runs against the target rack's contents
// excluding the item itself, so keeping an unchanged span never
// conflicts with its own previous position.
func (r *EquipmentRepo) Update(ctx context.Context, id, rackID uint64, name string, span validate.Span) (*model.Equipment, error) {
	if !span.Valid() {
		return nil, validate.ErrInvalidSpan
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// lock the item row first so concurrent updates of the same item
	// queue up behind each other
	var currentRack uint64
	err = tx.QueryRowContext(ctx,
		"SELECT rack_id FROM equipment WHERE id = ? FOR UPDATE", id).Scan(&currentRack)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}

	if err := lockRack(ctx, tx, rackID); err != nil {
		return nil, err
	}
	existing, err := spansInRack(ctx, tx, rackID)
	if err != nil {
		return nil, err
	}
	if err := checkPlacement(existing, span, id); err != nil {
		return nil, err
	}

	const q = `UPDATE equipment
	           SET rack_id = ?, name = ?, size = ?, start_unit = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, rackID, name, span.Size, span.StartUnit, id); err != nil {
		return nil, err
	}

	var e model.Equipment
	err = scanEquipment(tx.QueryRowContext(ctx,
		"SELECT "+equipmentColumns+" FROM equipment WHERE id = ?", id), &e)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &e, nil
}

// Delete removes a piece of equipment. Returns ErrEquipmentNotFound
// when the id does not exist.
func (r *EquipmentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM equipment WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEquipmentNotFound
	}
	return nil
}

// GetByID retrieves one piece of equipment.
func (r *EquipmentRepo) GetByID(ctx context.Context, id uint64) (*model.Equipment, error) {
	var e model.Equipment
	err := scanEquipment(r.db.QueryRowContext(ctx,
		"SELECT "+equipmentColumns+" FROM equipment WHERE id = ?", id), &e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List returns all equipment across all racks ordered by rack then
// start unit. Scoping by caller identity is the access filter's job.
func (r *EquipmentRepo) List(ctx context.Context) ([]model.Equipment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+equipmentColumns+" FROM equipment ORDER BY rack_id, start_unit")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEquipment(rows)
}

// ListByRack returns a rack's equipment ordered bottom-up by start unit.
func (r *EquipmentRepo) ListByRack(ctx context.Context, rackID uint64) ([]model.Equipment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+equipmentColumns+" FROM equipment WHERE rack_id = ? ORDER BY start_unit", rackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEquipment(rows)
}

func collectEquipment(rows *sql.Rows) ([]model.Equipment, error) {
	var out []model.Equipment
	for rows.Next() {
		var e model.Equipment
		if err := scanEquipment(rows, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
