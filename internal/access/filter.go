// Package access decides which racks a caller may see. It is the only
// place in the service where the admin/user visibility branch exists;
// every rack-listing endpoint goes through Filter rather than checking
// roles itself.
package access

import (
	"context"

	"github.com/serverroom/inventory/internal/model"
)

// RackLister returns every rack in the inventory, unscoped.
type RackLister interface {
	List(ctx context.Context) ([]model.Rack, error)
}

// GrantLister returns the racks granted to one user.
type GrantLister interface {
	ListByUser(ctx context.Context, userID uint64) ([]model.Rack, error)
}

// Filter computes the visible subset of racks for a caller.
type Filter struct {
	racks  RackLister
	grants GrantLister
}

// NewFilter constructs a Filter over the rack and grant stores.
func NewFilter(racks RackLister, grants GrantLister) *Filter {
	return &Filter{racks: racks, grants: grants}
}

// VisibleRacks returns all racks for an administrative caller and
// exactly the caller's granted racks otherwise. A user with no grants
// gets an empty slice.
func (f *Filter) VisibleRacks(ctx context.Context, role string, userID uint64) ([]model.Rack, error) {
	if role == model.RoleAdmin {
		return f.racks.List(ctx)
	}
	return f.grants.ListByUser(ctx, userID)
}

// CanSeeRack reports whether the caller may view a single rack. Used by
// per-rack endpoints such as equipment listing so they apply the same
// policy as the list endpoints.
func (f *Filter) CanSeeRack(ctx context.Context, role string, userID, rackID uint64) (bool, error) {
	if role == model.RoleAdmin {
		return true, nil
	}
	granted, err := f.grants.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range granted {
		if r.ID == rackID {
			return true, nil
		}
	}
	return false, nil
}
