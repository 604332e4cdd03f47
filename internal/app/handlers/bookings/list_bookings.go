package bookings

import (
	"context"
	"sort"

	"rentcal/internal/app/dto"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/uow"
	domainbooking "rentcal/internal/domain/booking"
	"rentcal/internal/domain/units"
)

const listBookingsKey = "bookings.list"

type ListBookingsQuery struct {
	UnitID string `json:"unit_id" validate:"required"`
	// Status filters by status; empty keeps every booking.
	Status string `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed no_show"`
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) ([]dto.Booking, error) {
	unit, execCtx, cleanup, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	u, err := unit.Units().ByID(execCtx, units.UnitID(q.UnitID))
	if err != nil {
		return nil, err
	}
	list, err := unit.Bookings().ListByUnit(execCtx, u.ID, nil)
	if err != nil {
		return nil, err
	}
	filtered := make([]*domainbooking.Booking, 0, len(list))
	for _, b := range list {
		if q.Status == "" || string(b.Status) == q.Status {
			filtered = append(filtered, b)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Stay.Start != filtered[j].Stay.Start {
			return filtered[i].Stay.Start.Before(filtered[j].Stay.Start)
		}
		return filtered[i].ID < filtered[j].ID
	})
	return dto.MapBookings(filtered), nil
}

var _ queries.Handler[ListBookingsQuery, []dto.Booking] = (*ListBookingsHandler)(nil)
