package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/serverroom/inventory/internal/model"
)

// RoomRepo provides methods to create, rename, delete and list rooms.
// It embeds a database handle to perform queries and commands.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (code 1062). Matching on the code keeps us off driver-specific types.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// Create inserts a new room. Room names are unique; a duplicate name
// returns ErrRoomNameExists. After the insert a follow-up SELECT
// populates the timestamp fields so callers receive a full record.
func (r *RoomRepo) Create(ctx context.Context, name string) (*model.Room, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO rooms (name) VALUES (?)", name)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrRoomNameExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID retrieves a room by its ID. Returns ErrRoomNotFound when no
// row is found.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = "SELECT id, name, created_at, updated_at FROM rooms WHERE id = ?"
	var room model.Room
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&room.ID, &room.Name, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// Update renames a room. Returns ErrRoomNotFound when the id does not
// exist and ErrRoomNameExists when the new name is taken.
func (r *RoomRepo) Update(ctx context.Context, id uint64, name string) (*model.Room, error) {
	const q = "UPDATE rooms SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, q, name, id); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrRoomNameExists
		}
		return nil, err
	}
	// RowsAffected is 0 both for a missing id and for an unchanged name,
	// so existence is checked by the read-back instead.
	return r.GetByID(ctx, id)
}

// Delete removes a room. A room that still contains racks cannot be
// deleted. The room row is locked first: rack creation locks the same
// row before inserting, so the emptiness check and the delete cannot
// interleave with a rack slipping in concurrently.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
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

	var locked uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM rooms WHERE id = ? FOR UPDATE", id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoomNotFound
		}
		return err
	}

	var racks int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM racks WHERE room_id = ?", id).Scan(&racks)
	if err != nil {
		return err
	}
	if racks > 0 {
		return ErrRoomNotEmpty
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// List returns all rooms ordered by name. Visibility scoping does not
// apply to rooms; only racks are grant-filtered.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	const q = "SELECT id, name, created_at, updated_at FROM rooms ORDER BY name"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
