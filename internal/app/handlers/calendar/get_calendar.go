package calendar

import (
	"context"

	"rentcal/internal/app/dto"
	handlersupport "rentcal/internal/app/handlers/support"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/uow"
	"rentcal/internal/domain/availability"
	domainbooking "rentcal/internal/domain/booking"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

const getCalendarKey = "availability.calendar"

type GetCalendarQuery struct {
	UnitID string         `json:"unit_id" validate:"required"`
	Start  daterange.Date `json:"start" validate:"required"`
	End    daterange.Date `json:"end" validate:"required"`
	// IncludeBookings adds the active bookings overlapping the window.
	IncludeBookings bool `json:"include_bookings"`
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
	MaxDays    int
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	window, err := handlersupport.Window(q.Start, q.End, h.MaxDays)
	if err != nil {
		return dto.Calendar{}, err
	}
	unit, execCtx, cleanup, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	u, err := unit.Units().ByID(execCtx, units.UnitID(q.UnitID))
	if err != nil {
		return dto.Calendar{}, err
	}
	in, err := handlersupport.LoadInputs(execCtx, unit, u, &window)
	if err != nil {
		return dto.Calendar{}, err
	}
	cal := availability.BuildCalendar(u, q.Start, q.End, in)

	var bookings []dto.Booking
	if q.IncludeBookings {
		for _, b := range domainbooking.ActiveOnly(in.Bookings) {
			if b.Stay.Overlaps(window) {
				bookings = append(bookings, dto.MapBooking(b))
			}
		}
	}
	return dto.MapCalendar(cal, bookings), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
