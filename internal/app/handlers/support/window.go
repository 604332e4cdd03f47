package support

import (
	"errors"
	"fmt"
	"time"

	"rentcal/internal/domain/shared/daterange"
)

// DefaultMaxDays caps calendar windows when no limit is configured.
const DefaultMaxDays = 366

var ErrWindowTooLarge = errors.New("support: date window too large")

// Window validates an inclusive [start, end] request window and returns it
// as a half-open range.
func Window(start, end daterange.Date, maxDays int) (daterange.Range, error) {
	r, err := daterange.Inclusive(start, end)
	if err != nil {
		return daterange.Range{}, err
	}
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}
	if r.Nights() > maxDays {
		return daterange.Range{}, fmt.Errorf("%w: %d days, limit %d", ErrWindowTooLarge, r.Nights(), maxDays)
	}
	return r, nil
}

// Clock supplies "today" in the property's time zone.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func (c Clock) Today() daterange.Date {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return daterange.Today(now(), c.Location)
}

func (c Clock) Time() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}
