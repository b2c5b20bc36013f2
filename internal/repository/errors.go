// Package repository defines error values that are reused across
// multiple repositories. These sentinel values allow higher layers such
// as handlers to distinguish between failure scenarios: a missing
// record maps to HTTP 404, a name or span that fails validation maps to
// 400, and conflicting state (overlapping equipment, a room that still
// holds racks, a duplicate username) maps to 409. Anything else is
// treated as a transient storage failure and surfaced as a 500.
package repository

import "errors"

// ErrRoomNotFound is returned when a room lookup yields no rows.
var ErrRoomNotFound = errors.New("room not found")

// ErrRackNotFound is returned when a rack lookup yields no rows, or
// when a grant replacement references a rack id that does not exist.
var ErrRackNotFound = errors.New("rack not found")

// ErrEquipmentNotFound is returned when an equipment lookup yields no rows.
var ErrEquipmentNotFound = errors.New("equipment not found")

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// ErrRoomNotEmpty is returned when deleting a room that still contains
// racks. The delete is rejected rather than cascaded; racks must be
// removed or moved first.
var ErrRoomNotEmpty = errors.New("room still contains racks")

// ErrRoomNameExists is returned when creating or renaming a room to a
// name already in use.
var ErrRoomNameExists = errors.New("room name already exists")

// ErrInvalidRackName is returned when a rack name does not match the
// site convention (two uppercase letters followed by two digits).
var ErrInvalidRackName = errors.New("rack name must be two uppercase letters followed by two digits (e.g. AE01)")

// ErrUsernameExists is returned when creating or renaming a user to a
// username already in use.
var ErrUsernameExists = errors.New("username already exists")
