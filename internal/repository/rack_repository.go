package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/serverroom/inventory/internal/model"
	"github.com/serverroom/inventory/internal/validate"
)

// RackRepo provides methods to work with racks. Rack names are
// normalized to uppercase and validated against the site convention on
// every create and update; a rejected name writes nothing.
type RackRepo struct {
	db *sql.DB
}

// NewRackRepo constructs a RackRepo with the given DB handle.
func NewRackRepo(db *sql.DB) *RackRepo {
	return &RackRepo{db: db}
}

// DB exposes the underlying handle for callers that need to coordinate
// transactions across repositories.
func (r *RackRepo) DB() *sql.DB { return r.db }

const rackColumns = "id, room_id, name, owner, pdu_left, pdu_right, created_at, updated_at"

func scanRack(row interface{ Scan(...any) error }, rack *model.Rack) error {
	return row.Scan(&rack.ID, &rack.RoomID, &rack.Name,
		&rack.Owner, &rack.PDULeft, &rack.PDURight,
		&rack.CreatedAt, &rack.UpdatedAt)
}

// lockRoom takes a row lock on the room inside tx. Rack inserts hold it
// until commit, and room deletion takes the same lock first, so a rack
// cannot slip into a room that is being deleted. Returns ErrRoomNotFound
// when the room does not exist.
func lockRoom(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM rooms WHERE id = ? FOR UPDATE", roomID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	return err
}

// Create inserts a new rack into a room. The name is uppercased before
// validation so "ae01" and "AE01" are the same rack name. Returns
// ErrInvalidRackName when the name fails the convention and
// ErrRoomNotFound when the room id does not exist. The room row stays
// locked until the insert commits.
func (r *RackRepo) Create(ctx context.Context, roomID uint64, name string, owner, pduLeft, pduRight *string) (*model.Rack, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !validate.IsValidRackName(name) {
		return nil, ErrInvalidRackName
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

	if err := lockRoom(ctx, tx, roomID); err != nil {
		return nil, err
	}

	const q = "INSERT INTO racks (room_id, name, owner, pdu_left, pdu_right) VALUES (?, ?, ?, ?, ?)"
	res, err := tx.ExecContext(ctx, q, roomID, name, owner, pduLeft, pduRight)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	var rack model.Rack
	err = scanRack(tx.QueryRowContext(ctx,
		"SELECT "+rackColumns+" FROM racks WHERE id = ?", id), &rack)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &rack, nil
}

// GetByID retrieves a rack by its ID. Returns ErrRackNotFound when no
// row is found.
func (r *RackRepo) GetByID(ctx context.Context, id uint64) (*model.Rack, error) {
	var rack model.Rack
	err := scanRack(r.db.QueryRowContext(ctx,
		"SELECT "+rackColumns+" FROM racks WHERE id = ?", id), &rack)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRackNotFound
		}
		return nil, err
	}
	return &rack, nil
}

// Update rewrites a rack's fields with the same normalization and
// validation as Create. Moving a rack to another room is allowed; the
// target room is locked for the duration of the write so it cannot be
// deleted out from under the move.
func (r *RackRepo) Update(ctx context.Context, id, roomID uint64, name string, owner, pduLeft, pduRight *string) (*model.Rack, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !validate.IsValidRackName(name) {
		return nil, ErrInvalidRackName
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

	if err := lockRoom(ctx, tx, roomID); err != nil {
		return nil, err
	}

	const q = `UPDATE racks
	           SET room_id = ?, name = ?, owner = ?, pdu_left = ?, pdu_right = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, roomID, name, owner, pduLeft, pduRight, id); err != nil {
		return nil, err
	}

	var rack model.Rack
	err = scanRack(tx.QueryRowContext(ctx,
		"SELECT "+rackColumns+" FROM racks WHERE id = ?", id), &rack)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRackNotFound
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &rack, nil
}

// Delete removes a rack together with its equipment and its grant rows
// in a single transaction. A rack that no longer exists must not stay
// visible through stale grants, so the grants go in the same commit.
func (r *RackRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM equipment WHERE rack_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_racks WHERE rack_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM racks WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRackNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// List returns every rack ordered by name. Callers that serve
// non-administrative users must scope the result through the access
// filter instead of calling this directly.
func (r *RackRepo) List(ctx context.Context) ([]model.Rack, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+rackColumns+" FROM racks ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRacks(rows)
}

// ListByRoom returns the racks standing in one room, ordered by name.
func (r *RackRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.Rack, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+rackColumns+" FROM racks WHERE room_id = ? ORDER BY name", roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRacks(rows)
}

func collectRacks(rows *sql.Rows) ([]model.Rack, error) {
	var out []model.Rack
	for rows.Next() {
		var rack model.Rack
		if err := scanRack(rows, &rack); err != nil {
			return nil, err
		}
		out = append(out, rack)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
