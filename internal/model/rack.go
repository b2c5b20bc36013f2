package model

import "time"

// Rack represents a 42U rack cabinet inside a room. The name follows a
// fixed site convention (two uppercase letters, two digits, e.g. AE01)
// and is always stored uppercase. Owner and the two PDU fields are
// free-text placeholders shown in the UI; the service attaches no
// semantics to them.
//
// Fields:
//  ID       – primary key identifier.
//  RoomID   – room this rack stands in.
//  Name     – rack identifier like "AE01", stored uppercase.
//  Owner    – optional free-text owner label (nil when unset).
//  PDULeft  – optional left power-distribution reading.
//  PDURight – optional right power-distribution reading.
type Rack struct {
	ID        uint64    // racks.id
	RoomID    uint64    // racks.room_id
	Name      string    // racks.name
	Owner     *string   // racks.owner (nullable)
	PDULeft   *string   // racks.pdu_left (nullable)
	PDURight  *string   // racks.pdu_right (nullable)
	CreatedAt time.Time // racks.created_at
	UpdatedAt time.Time // racks.updated_at
}

// Equipment represents one rack-mounted item. It occupies Size
// contiguous rack units starting at StartUnit; no two items in the same
// rack may occupy overlapping units.
//
// Fields:
//  ID        – primary key identifier.
//  RackID    – rack the item is mounted in.
//  Name      – human-readable label.
//  Size      – height in rack units (>= 1).
//  StartUnit – first occupied unit (1-based).
type Equipment struct {
	ID        uint64    // equipment.id
	RackID    uint64    // equipment.rack_id
	Name      string    // equipment.name
	Size      uint32    // equipment.size
	StartUnit uint32    // equipment.start_unit
	CreatedAt time.Time // equipment.created_at
	UpdatedAt time.Time // equipment.updated_at
}
