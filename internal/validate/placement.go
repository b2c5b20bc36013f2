package validate

import (
	"errors"
	"fmt"
)

// RackUnits is the height of every rack in the inventory. Equipment
// occupies a contiguous run of unit slots numbered 1..RackUnits.
const RackUnits = 42

// Span describes the vertical extent of a piece of equipment: it starts
// at StartUnit and occupies Size consecutive units, i.e. the inclusive
// interval [StartUnit, StartUnit+Size-1].
type Span struct {
	StartUnit uint32
	Size      uint32
}

// PlacedSpan is a span already present in a rack, tagged with the owning
// equipment id so updates can exclude the item being moved.
type PlacedSpan struct {
	EquipmentID uint64
	Span
}

// ErrInvalidSpan is returned when a span has a non-positive start or size.
var ErrInvalidSpan = errors.New("start_unit and size must be positive")

// ConflictError reports that a candidate span overlaps equipment already
// mounted in the rack.
type ConflictError struct {
	EquipmentID uint64 // item occupying the contested units
	Span        Span   // the rejected candidate
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("units %d-%d conflict with equipment %d",
		e.Span.StartUnit, e.Span.End(), e.EquipmentID)
}

// End returns the last unit the span occupies. The arithmetic runs in
// uint64 so extreme uint32 inputs cannot wrap back into the valid range.
func (s Span) End() uint64 { return uint64(s.StartUnit) + uint64(s.Size) - 1 }

// Valid reports whether the span has a positive start and size.
func (s Span) Valid() bool { return s.StartUnit >= 1 && s.Size >= 1 }

// FitsRack reports whether the span lies inside the 1..RackUnits range.
// The bound is enforced by the equipment store on create and update alike.
func (s Span) FitsRack() bool { return s.Valid() && s.End() <= RackUnits }

// Overlaps reports whether two spans share at least one unit. Both spans
// must already be Valid; the check is the standard closed-interval
// intersection test.
func (s Span) Overlaps(o Span) bool {
	return uint64(s.StartUnit) <= o.End() && uint64(o.StartUnit) <= s.End()
}

// CanPlace decides whether candidate may be inserted into a rack whose
// current contents are existing. excludeID names the equipment being
// updated so it never conflicts with its own previous position; pass 0
// on create. A linear scan is plenty here, racks hold tens of items.
//
// The 1..RackUnits bound is deliberately not checked here; callers apply
// FitsRack so the bound policy stays in one place.
func CanPlace(existing []PlacedSpan, candidate Span, excludeID uint64) error {
	if !candidate.Valid() {
		return ErrInvalidSpan
	}
	for _, p := range existing {
		if excludeID != 0 && p.EquipmentID == excludeID {
			continue
		}
		if candidate.Overlaps(p.Span) {
			return &ConflictError{EquipmentID: p.EquipmentID, Span: candidate}
		}
	}
	return nil
}
