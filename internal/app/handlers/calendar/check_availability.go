package calendar

import (
	"context"

	"rentcal/internal/app/dto"
	handlersupport "rentcal/internal/app/handlers/support"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/uow"
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/pricing"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	UnitID   string         `json:"unit_id" validate:"required"`
	CheckIn  daterange.Date `json:"check_in" validate:"required"`
	CheckOut daterange.Date `json:"check_out" validate:"required"`
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

// CheckAvailabilityHandler re-validates a stay against current data. Conflicts
// are reported in the result, not as errors.
type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Clock      handlersupport.Clock
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.RangeCheck, error) {
	stay, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.RangeCheck{}, err
	}
	unit, execCtx, cleanup, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.RangeCheck{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	u, err := unit.Units().ByID(execCtx, units.UnitID(q.UnitID))
	if err != nil {
		return dto.RangeCheck{}, err
	}
	in, err := handlersupport.LoadInputs(execCtx, unit, u, &stay)
	if err != nil {
		return dto.RangeCheck{}, err
	}
	return Evaluate(u, stay, in, h.Clock.Today())
}

// Evaluate turns availability.CheckRange into a RangeCheck. Only unexpected
// errors are returned as errors.
func Evaluate(u *units.Unit, stay daterange.Range, in availability.Inputs, today daterange.Date) (dto.RangeCheck, error) {
	res := dto.RangeCheck{
		Available: true,
		Nights:    stay.Nights(),
		MinStay:   pricing.MinStayFor(u, stay, in.PriceRules),
	}
	err := availability.CheckRange(u, stay, in, today)
	if err == nil {
		return res, nil
	}
	ce, ok := availability.AsConflict(err)
	if !ok {
		return dto.RangeCheck{}, err
	}
	res.Available = false
	res.Reason = ce.Message
	res.Kind = string(ce.Kind)
	if !ce.Date.IsZero() {
		d := ce.Date
		res.Date = &d
	}
	return res, nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.RangeCheck] = (*CheckAvailabilityHandler)(nil)
