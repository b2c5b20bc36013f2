package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// newMockDB returns a handle whose driver replays the expectations set
// on the mock, so transaction shape and statement order can be asserted
// without a live MySQL.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestDedupeIDs(t *testing.T) {
	cases := []struct {
		name string
		in   []uint64
		want []uint64
	}{
		{"no duplicates", []uint64{1, 2, 3}, []uint64{1, 2, 3}},
		{"repeats collapse keeping first order", []uint64{3, 1, 3, 2, 1}, []uint64{3, 1, 2}},
		{"all same", []uint64{5, 5, 5}, []uint64{5}},
		{"empty", nil, []uint64{}},
	}
	for _, c := range cases {
		got := dedupeIDs(c.in)
		if len(got) != len(c.want) {
			t.Errorf("%s: dedupeIDs(%v) = %v, want %v", c.name, c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("%s: dedupeIDs(%v) = %v, want %v", c.name, c.in, got, c.want)
				break
			}
		}
	}
}

// Granting the same rack twice in one request behaves exactly like
// granting it once: the count check and the insert both see the
// collapsed set.
func TestReplaceForUserCollapsesDuplicates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGrantRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM users WHERE id = ?").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("SELECT COUNT(*) FROM racks WHERE id IN (?,?)").WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec("DELETE FROM user_racks WHERE user_id = ?").WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_racks (user_id, rack_id) VALUES (?, ?), (?, ?)").
		WithArgs(7, 1, 7, 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.ReplaceForUser(context.Background(), 7, []uint64{1, 2, 2, 1}); err != nil {
		t.Fatalf("ReplaceForUser: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// A missing rack id aborts the replacement before the old grants are
// touched: the transaction rolls back with no DELETE and no INSERT.
func TestReplaceForUserMissingRackLeavesGrantsUntouched(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGrantRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM users WHERE id = ?").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("SELECT COUNT(*) FROM racks WHERE id IN (?,?)").WithArgs(1, 99).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.ReplaceForUser(context.Background(), 7, []uint64{1, 99})
	if !errors.Is(err, ErrRackNotFound) {
		t.Fatalf("want ErrRackNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReplaceForUserUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGrantRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM users WHERE id = ?").WithArgs(9).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.ReplaceForUser(context.Background(), 9, []uint64{1})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// An empty set is a valid replacement: all grants go away, nothing is
// inserted.
func TestReplaceForUserEmptySetClearsGrants(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGrantRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM users WHERE id = ?").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec("DELETE FROM user_racks WHERE user_id = ?").WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	if err := repo.ReplaceForUser(context.Background(), 7, nil); err != nil {
		t.Fatalf("ReplaceForUser: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
