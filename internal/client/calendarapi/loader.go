package calendarapi

import (
	"context"
	"errors"
	"sync"

	"rentcal/internal/app/dto"
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
)

// ErrSuperseded is returned by Load when a newer request finished first.
var ErrSuperseded = errors.New("calendarapi: superseded by a newer request")

// CalendarSource is satisfied by *Client.
type CalendarSource interface {
	Calendar(ctx context.Context, unitID string, start, end daterange.Date) (dto.Calendar, error)
}

// Loader fetches month windows of one unit. Only the most recently issued
// request may replace the loaded calendar; a failed fetch keeps the previous one.
type Loader struct {
	Source CalendarSource
	UnitID string
	// Months is the number of months shown at once; zero means two.
	Months int

	mu      sync.Mutex
	seq     uint64
	current *availability.Calendar
	window  daterange.Range
}

// Load fetches the window starting at the first day of month's month.
func (l *Loader) Load(ctx context.Context, month daterange.Date) (*availability.Calendar, error) {
	months := l.Months
	if months <= 0 {
		months = 2
	}
	start := month.FirstOfMonth(0)
	end := month.FirstOfMonth(months).AddDays(-1)

	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	cal, err := l.Source.Calendar(ctx, l.UnitID, start, end)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	l.current = ToCalendar(cal)
	l.window = daterange.Range{Start: start, End: end.AddDays(1)}
	return l.current, nil
}

// Current returns the last successfully loaded calendar and its window.
func (l *Loader) Current() (*availability.Calendar, daterange.Range) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, l.window
}
