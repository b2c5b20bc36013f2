package model

import "time"

// Room represents a physical server room. Rooms exclusively own their
// racks; a room cannot be deleted while racks remain inside it.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique human-readable label.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Room struct {
	ID        uint64    // rooms.id
	Name      string    // rooms.name
	CreatedAt time.Time // rooms.created_at
	UpdatedAt time.Time // rooms.updated_at
}
