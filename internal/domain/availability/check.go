package availability

import (
	"errors"
	"fmt"

	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/pricing"
	"rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

// ErrUnavailable matches every *ConflictError through errors.Is.
var ErrUnavailable = errors.New("availability: dates are not available")

type ConflictKind string

const (
	ConflictInvalidRange    ConflictKind = "invalid_range"
	ConflictUnitInactive    ConflictKind = "unit_inactive"
	ConflictPastDate        ConflictKind = "past_date"
	ConflictAdvanceTooShort ConflictKind = "min_booking_advance"
	ConflictAdvanceTooLong  ConflictKind = "max_booking_advance"
	ConflictClosed          ConflictKind = "closed"
	ConflictExternal        ConflictKind = "external_booking"
	ConflictBooking         ConflictKind = "booking_conflict"
	ConflictGap             ConflictKind = "gap_between_bookings"
	ConflictMinStay         ConflictKind = "min_stay"
	ConflictNoCheckIn       ConflictKind = "checkin_not_allowed"
	ConflictNoCheckOut      ConflictKind = "checkout_not_allowed"
)

// ConflictError names the first reason a stay cannot be booked.
type ConflictError struct {
	Kind    ConflictKind
	Message string
	Date    daterange.Date
}

func (e *ConflictError) Error() string {
	return "availability: " + e.Message
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrUnavailable
}

func conflict(kind ConflictKind, d daterange.Date, format string, args ...any) *ConflictError {
	return &ConflictError{Kind: kind, Date: d, Message: fmt.Sprintf(format, args...)}
}

// AsConflict extracts a *ConflictError from err.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// CheckRange validates stay for a direct single-unit booking made on today.
// Checks run in a fixed order and the first failure is returned.
func CheckRange(unit *units.Unit, stay daterange.Range, in Inputs, today daterange.Date) error {
	if unit == nil {
		return conflict(ConflictUnitInactive, stay.Start, "unit not found")
	}
	if err := stay.Validate(); err != nil {
		return conflict(ConflictInvalidRange, stay.Start, "check-out must be after check-in")
	}
	if !unit.IsActive() {
		return conflict(ConflictUnitInactive, stay.Start, "unit is not available for booking")
	}
	if stay.Start.Before(today) {
		return conflict(ConflictPastDate, stay.Start, "check-in %s is in the past", stay.Start)
	}
	lead := today.DaysUntil(stay.Start)
	if unit.MinBookingAdvance > 0 && lead < unit.MinBookingAdvance {
		return conflict(ConflictAdvanceTooShort, stay.Start, "bookings must be made at least %d days in advance", unit.MinBookingAdvance)
	}
	if unit.MaxBookingAdvance > 0 && lead > unit.MaxBookingAdvance {
		return conflict(ConflictAdvanceTooLong, stay.Start, "bookings cannot be made more than %d days in advance", unit.MaxBookingAdvance)
	}
	for _, c := range in.Closures {
		if c == nil || c.UnitID != unit.ID {
			continue
		}
		r, ok := c.Range()
		if !ok || !r.Overlaps(stay) {
			continue
		}
		if c.External {
			return conflict(ConflictExternal, overlapStart(r, stay), "dates booked on %s from %s to %s", ExtractProvider(c.Reason), r.Start, r.End)
		}
		if c.Reason != "" {
			return conflict(ConflictClosed, overlapStart(r, stay), "unit closed from %s to %s: %s", r.Start, r.End, c.Reason)
		}
		return conflict(ConflictClosed, overlapStart(r, stay), "unit closed from %s to %s", r.Start, r.End)
	}
	active := unitBookings(unit.ID, in.Bookings)
	for _, b := range active {
		if b.Stay.Overlaps(stay) {
			return conflict(ConflictBooking, overlapStart(b.Stay, stay), "dates overlap an existing booking from %s to %s", b.Stay.Start, b.Stay.End)
		}
	}
	if unit.GapDays > 0 {
		for _, b := range active {
			padded := daterange.Range{Start: b.Stay.Start.AddDays(-unit.GapDays), End: b.Stay.End.AddDays(unit.GapDays)}
			if padded.Overlaps(stay) {
				return conflict(ConflictGap, stay.Start, "%d free nights are required between bookings", unit.GapDays)
			}
		}
	}
	if minStay := pricing.MinStayFor(unit, stay, in.PriceRules); stay.Nights() < minStay {
		return conflict(ConflictMinStay, stay.Start, "minimum stay is %d nights", minStay)
	}
	for _, r := range in.CheckInOut {
		if r == nil || r.UnitID != unit.ID {
			continue
		}
		if r.ForbidsCheckIn(stay.Start) {
			return conflict(ConflictNoCheckIn, stay.Start, "check-in is not allowed on %s", stay.Start)
		}
	}
	for _, r := range in.CheckInOut {
		if r == nil || r.UnitID != unit.ID {
			continue
		}
		if r.ForbidsCheckOut(stay.End) {
			return conflict(ConflictNoCheckOut, stay.End, "check-out is not allowed on %s", stay.End)
		}
	}
	return nil
}

// IsRangeFree reports whether no active booking or closure of unit occupies any
// night of stay. Check-in/check-out restrictions, gaps and stay limits are ignored.
func IsRangeFree(unit *units.Unit, stay daterange.Range, bookings []*booking.Booking, closures []*rules.ClosureRule) bool {
	if unit == nil || stay.Validate() != nil {
		return false
	}
	for _, b := range unitBookings(unit.ID, bookings) {
		if b.Stay.Overlaps(stay) {
			return false
		}
	}
	for _, c := range closures {
		if c == nil || c.UnitID != unit.ID {
			continue
		}
		if r, ok := c.Range(); ok && r.Overlaps(stay) {
			return false
		}
	}
	return true
}

func unitBookings(unit units.UnitID, all []*booking.Booking) []*booking.Booking {
	out := make([]*booking.Booking, 0, len(all))
	for _, b := range all {
		if b == nil || b.UnitID != unit || !b.Active() || b.Stay.Validate() != nil {
			continue
		}
		out = append(out, b)
	}
	return out
}

func overlapStart(a, b daterange.Range) daterange.Date {
	if a.Start.After(b.Start) {
		return a.Start
	}
	return b.Start
}
