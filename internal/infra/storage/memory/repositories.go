package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "rentcal/internal/domain/booking"
	"rentcal/internal/domain/shared/daterange"
	domainunits "rentcal/internal/domain/units"
)

// UnitRepository is an in-memory implementation for demo purposes and tests.
// Aggregates are copied on the way in and out so callers never share state.
type UnitRepository struct {
	mu    sync.RWMutex
	items map[domainunits.UnitID]*domainunits.Unit
}

// NewUnitRepository builds an empty repository.
func NewUnitRepository() *UnitRepository {
	return &UnitRepository{items: make(map[domainunits.UnitID]*domainunits.Unit)}
}

// ByID returns a unit or units.ErrNotFound.
func (r *UnitRepository) ByID(ctx context.Context, id domainunits.UnitID) (*domainunits.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	unit, ok := r.items[id]
	if !ok {
		return nil, domainunits.ErrNotFound
	}
	return cloneUnit(unit), nil
}

// List returns every unit ordered by id.
func (r *UnitRepository) List(ctx context.Context) ([]*domainunits.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainunits.Unit, 0, len(r.items))
	for _, unit := range r.items {
		out = append(out, cloneUnit(unit))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save stores/updates a unit entry.
func (r *UnitRepository) Save(ctx context.Context, unit *domainunits.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit.Version++
	r.items[unit.ID] = cloneUnit(unit)
	return nil
}

func cloneUnit(u *domainunits.Unit) *domainunits.Unit {
	cp := *u
	cp.ClearEvents()
	return &cp
}

// GroupRepository keeps unit groups in memory.
type GroupRepository struct {
	mu    sync.RWMutex
	items map[domainunits.GroupID]*domainunits.Group
}

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{items: make(map[domainunits.GroupID]*domainunits.Group)}
}

func (r *GroupRepository) ByID(ctx context.Context, id domainunits.GroupID) (*domainunits.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.items[id]
	if !ok {
		return nil, domainunits.ErrGroupNotFound
	}
	return cloneGroup(group), nil
}

func (r *GroupRepository) List(ctx context.Context) ([]*domainunits.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainunits.Group, 0, len(r.items))
	for _, group := range r.items {
		out = append(out, cloneGroup(group))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *GroupRepository) Save(ctx context.Context, group *domainunits.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[group.ID] = cloneGroup(group)
	return nil
}

func cloneGroup(g *domainunits.Group) *domainunits.Group {
	cp := *g
	cp.UnitIDs = append([]domainunits.UnitID(nil), g.UnitIDs...)
	return &cp
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

// NewBookingRepository builds an empty booking repo.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

// ByID fetches a booking.
func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(booking), nil
}

// Save stores the current booking state.
func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.Version++
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

// ListByUnit returns the bookings of unit ordered by check-in. A non-nil
// window keeps only stays overlapping it.
func (r *BookingRepository) ListByUnit(ctx context.Context, unit domainunits.UnitID, window *daterange.Range) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if booking.UnitID != unit {
			continue
		}
		if window != nil && !booking.Stay.Overlaps(*window) {
			continue
		}
		matches = append(matches, cloneBooking(booking))
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].Stay.Start.Equal(matches[j].Stay.Start) {
			return matches[i].Stay.Start.Before(matches[j].Stay.Start)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	cp := *b
	cp.ClearEvents()
	return &cp
}

var (
	_ domainunits.Repository      = (*UnitRepository)(nil)
	_ domainunits.GroupRepository = (*GroupRepository)(nil)
	_ domainbooking.Repository    = (*BookingRepository)(nil)
)
