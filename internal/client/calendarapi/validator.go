package calendarapi

import (
	"context"

	"rentcal/internal/app/dto"
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/selection"
	"rentcal/internal/domain/shared/daterange"
)

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, unitID string, stay daterange.Range) (dto.RangeCheck, error)
}

// RangeValidator re-checks a provisional stay against the server. An
// unavailable answer comes back as an *availability.ConflictError.
type RangeValidator struct {
	Checker AvailabilityChecker
	UnitID  string
}

func (v RangeValidator) ValidateRange(ctx context.Context, stay daterange.Range) error {
	res, err := v.Checker.CheckAvailability(ctx, v.UnitID, stay)
	if err != nil {
		return err
	}
	if res.Available {
		return nil
	}
	ce := &availability.ConflictError{Kind: availability.ConflictKind(res.Kind), Message: res.Reason}
	if res.Date != nil {
		ce.Date = *res.Date
	}
	if ce.Message == "" {
		ce.Message = "dates are not available"
	}
	return ce
}

var _ selection.RangeValidator = RangeValidator{}
