package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/serverroom/inventory/internal/model"
)

// GrantRepo owns the user_racks relation: which user may view which
// rack. The relation has a composite (user_id, rack_id) primary key and
// is only ever rewritten wholesale via ReplaceForUser; there is no
// incremental add/remove, which rules out lost-update races between
// concurrent partial edits.
type GrantRepo struct {
	db *sql.DB
}

// NewGrantRepo constructs a GrantRepo with the given DB handle.
func NewGrantRepo(db *sql.DB) *GrantRepo {
	return &GrantRepo{db: db}
}

// dedupeIDs collapses repeated ids keeping first-seen order, so a
// request granting the same rack twice behaves exactly like granting it
// once.
func dedupeIDs(ids []uint64) []uint64 {
	unique := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// ReplaceForUser atomically replaces the user's entire grant set with
// rackIDs. Duplicate ids are collapsed. The delete and the insert run
// in one transaction, and every rack id is verified inside that
// transaction: if the user or any rack is missing, nothing changes and
// ErrUserNotFound / ErrRackNotFound is returned. A concurrent reader
// sees either the fully-old or the fully-new set, never a partial one.
func (r *GrantRepo) ReplaceForUser(ctx context.Context, userID uint64, rackIDs []uint64) error {
	unique := dedupeIDs(rackIDs)

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

	var exists uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id = ?", userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	if len(unique) > 0 {
		// verify every referenced rack exists before touching the old set
		query := "SELECT COUNT(*) FROM racks WHERE id IN (?" + strings.Repeat(",?", len(unique)-1) + ")"
		args := make([]any, len(unique))
		for i, id := range unique {
			args[i] = id
		}
		var count int
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
			return err
		}
		if count != len(unique) {
			return ErrRackNotFound
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM user_racks WHERE user_id = ?", userID); err != nil {
		return err
	}
	if len(unique) > 0 {
		query := "INSERT INTO user_racks (user_id, rack_id) VALUES (?, ?)" +
			strings.Repeat(", (?, ?)", len(unique)-1)
		args := make([]any, 0, len(unique)*2)
		for _, rackID := range unique {
			args = append(args, userID, rackID)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListByUser returns the racks granted to a user, ordered by rack name.
// A user with no grants gets an empty slice, not an error.
func (r *GrantRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Rack, error) {
	const q = `SELECT r.id, r.room_id, r.name, r.owner, r.pdu_left, r.pdu_right, r.created_at, r.updated_at
	           FROM racks r
	           JOIN user_racks ur ON ur.rack_id = r.id
	           WHERE ur.user_id = ?
	           ORDER BY r.name`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRacks(rows)
}

// DeleteForUserTx removes every grant belonging to a user inside an
// existing transaction. Used when deleting the user itself so the
// grants disappear in the same commit.
func (r *GrantRepo) DeleteForUserTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM user_racks WHERE user_id = ?", userID)
	return err
}
