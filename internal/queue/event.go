// Package queue defines audit event payloads exchanged over the
// message broker, and the background consumer that records them.
package queue

// EquipmentPlacedEvent is published after an equipment create or update
// commits. It carries enough context for downstream consumers to log or
// alert without querying the primary database.
type EquipmentPlacedEvent struct {
	EquipmentID uint64 `json:"equipment_id"`
	RackID      uint64 `json:"rack_id"`
	RackName    string `json:"rack_name"`
	Name        string `json:"name"`
	StartUnit   uint32 `json:"start_unit"`
	Size        uint32 `json:"size"`
	ActorID     uint64 `json:"actor_id"`
	Action      string `json:"action"` // "created" or "updated"
	OccurredAt  string `json:"occurred_at"`
}

// GrantsReplacedEvent is published after a user's rack grant set is
// atomically replaced.
type GrantsReplacedEvent struct {
	UserID     uint64   `json:"user_id"`
	RackIDs    []uint64 `json:"rack_ids"`
	ActorID    uint64   `json:"actor_id"`
	OccurredAt string   `json:"occurred_at"`
}
