package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const rackSelectByID = "SELECT id, room_id, name, owner, pdu_left, pdu_right, created_at, updated_at FROM racks WHERE id = ?"

// Creating a rack locks the room row before inserting, so a concurrent
// room delete blocks on the same lock instead of orphaning the rack.
func TestRackCreateLocksRoomUntilCommit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRackRepo(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM rooms WHERE id = ? FOR UPDATE").WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec("INSERT INTO racks (room_id, name, owner, pdu_left, pdu_right) VALUES (?, ?, ?, ?, ?)").
		WithArgs(5, "AE01", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(rackSelectByID).WithArgs(3).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "room_id", "name", "owner", "pdu_left", "pdu_right", "created_at", "updated_at"}).
			AddRow(3, 5, "AE01", nil, nil, nil, now, now))
	mock.ExpectCommit()

	rack, err := repo.Create(context.Background(), 5, "ae01", nil, nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rack.Name != "AE01" {
		t.Fatalf("name = %q, want AE01", rack.Name)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// A missing room rolls the transaction back without reaching the insert.
func TestRackCreateMissingRoomRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRackRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM rooms WHERE id = ? FOR UPDATE").WithArgs(5).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), 5, "AE01", nil, nil, nil)
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("want ErrRoomNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// An invalid name never touches the database.
func TestRackCreateRejectsBadNameBeforeAnyQuery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRackRepo(db)

	for _, name := range []string{"A01", "AE1", "AE011", "1234"} {
		if _, err := repo.Create(context.Background(), 5, name, nil, nil, nil); !errors.Is(err, ErrInvalidRackName) {
			t.Errorf("Create(%q): want ErrInvalidRackName, got %v", name, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// Moving a rack locks the target room for the duration of the write.
func TestRackUpdateMissingTargetRoomRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRackRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM rooms WHERE id = ? FOR UPDATE").WithArgs(8).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), 3, 8, "AE01", nil, nil, nil)
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("want ErrRoomNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
