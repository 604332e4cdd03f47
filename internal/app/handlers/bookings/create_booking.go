package bookings

import (
	"context"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	handlersupport "rentcal/internal/app/handlers/support"
	"rentcal/internal/app/middleware"
	"rentcal/internal/domain/availability"
	domainbooking "rentcal/internal/domain/booking"
	"rentcal/internal/domain/pricing"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

const (
	createBookingKey = "bookings.create"
	cancelBookingKey = "bookings.cancel"
)

type CreateBookingCommand struct {
	UnitID          string         `json:"unit_id" validate:"required"`
	GuestName       string         `json:"guest_name" validate:"max=200"`
	CheckIn         daterange.Date `json:"check_in" validate:"required"`
	CheckOut        daterange.Date `json:"check_out" validate:"required"`
	Guests          int            `json:"guests" validate:"min=1"`
	Adults          int            `json:"adults" validate:"gte=0"`
	Children        int            `json:"children" validate:"gte=0"`
	Status          string         `json:"status" validate:"omitempty,oneof=pending confirmed"`
	IdempotencyKeyV string         `json:"-"`
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.Booking{} }

type CreateBookingHandler struct {
	handlersupport.CommandDeps
}

// Handle re-runs the full range check inside the transaction, so a stay
// that became unavailable fails with an *availability.ConflictError.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	stay, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	status := domainbooking.StatusPending
	if cmd.Status != "" {
		if status, err = domainbooking.ParseStatus(cmd.Status); err != nil {
			return nil, err
		}
	}
	unit, ctx, commit, cleanup, err := h.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	u, err := unit.Units().ByID(ctx, units.UnitID(cmd.UnitID))
	if err != nil {
		return nil, err
	}
	in, err := handlersupport.LoadInputs(ctx, unit, u, &stay)
	if err != nil {
		return nil, err
	}
	if err := availability.CheckRange(u, stay, in, h.Clock.Today()); err != nil {
		return nil, err
	}
	quote, err := pricing.QuoteStay(u, in.PriceRules, stay, cmd.Guests)
	if err != nil {
		return nil, err
	}
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(h.ID()),
		UnitID:    u.ID,
		GuestName: cmd.GuestName,
		Stay:      stay,
		Guests:    cmd.Guests,
		Adults:    cmd.Adults,
		Children:  cmd.Children,
		Price:     quote,
		Status:    status,
		CreatedAt: h.Clock.Time(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := h.Record(ctx, booking); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	out := dto.MapBooking(booking)
	return &out, nil
}

type CancelBookingCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingHandler struct {
	handlersupport.CommandDeps
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.Booking, error) {
	unit, ctx, commit, cleanup, err := h.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if err := booking.Cancel(cmd.Reason, h.Clock.Time()); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := h.Record(ctx, booking); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	out := dto.MapBooking(booking)
	return &out, nil
}

var (
	_ commands.Handler[CreateBookingCommand, *dto.Booking] = (*CreateBookingHandler)(nil)
	_ commands.Handler[CancelBookingCommand, *dto.Booking] = (*CancelBookingHandler)(nil)
	_ middleware.IdempotentCommand                         = CreateBookingCommand{}
)
