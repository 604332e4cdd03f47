package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentcal/internal/domain/pricing"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/events"
	"rentcal/internal/domain/units"
)

var (
	ErrInvalidGuests   = errors.New("booking: guests count must be positive")
	ErrGuestsBreakdown = errors.New("booking: adults and children must add up to guests")
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrInvalidStatus   = errors.New("booking: unknown status")
	ErrBookingNotFound = errors.New("booking: not found")
	ErrUnitRequired    = errors.New("booking: unit id required")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return st, nil
	case "":
		return StatusPending, nil
	default:
		return "", ErrInvalidStatus
	}
}

type Booking struct {
	ID        BookingID
	UnitID    units.UnitID
	GuestName string
	// Stay holds check-in and the exclusive check-out.
	Stay      daterange.Range
	Guests    int
	Adults    int
	Children  int
	Price     pricing.Quote
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	// ListByUnit returns bookings of unit, optionally only those overlapping window.
	ListByUnit(ctx context.Context, unit units.UnitID, window *daterange.Range) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	UnitID    units.UnitID
	GuestName string
	Stay      daterange.Range
	Guests    int
	Adults    int
	Children  int
	Price     pricing.Quote
	Status    Status
	CreatedAt time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if params.Adults < 0 || params.Children < 0 {
		return nil, ErrGuestsBreakdown
	}
	if (params.Adults > 0 || params.Children > 0) && params.Adults+params.Children != params.Guests {
		return nil, ErrGuestsBreakdown
	}
	if strings.TrimSpace(string(params.UnitID)) == "" {
		return nil, ErrUnitRequired
	}
	if err := params.Stay.Validate(); err != nil {
		return nil, err
	}
	status := params.Status
	if status == "" {
		status = StatusPending
	}
	if status != StatusPending && status != StatusConfirmed {
		return nil, ErrInvalidState
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	b := &Booking{
		ID:        params.ID,
		UnitID:    params.UnitID,
		GuestName: strings.TrimSpace(params.GuestName),
		Stay:      params.Stay,
		Guests:    params.Guests,
		Adults:    params.Adults,
		Children:  params.Children,
		Price:     params.Price,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingCreated{BookingID: b.ID, UnitID: b.UnitID, Stay: b.Stay, Guests: b.Guests, Status: b.Status, Total: b.Price.Total, At: now})
	return b, nil
}

// Active reports whether the booking occupies its dates.
func (b *Booking) Active() bool {
	return b != nil && b.Status != StatusCancelled
}

// Blocks reports whether the booking occupies the night of d.
func (b *Booking) Blocks(d daterange.Date) bool {
	return b.Active() && b.Stay.ContainsDate(d)
}

func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.transition(StatusConfirmed, now)
	b.Record(BookingConfirmed{BookingID: b.ID, UnitID: b.UnitID, Stay: b.Stay, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.transition(StatusCancelled, now)
	b.Record(BookingCancelled{BookingID: b.ID, UnitID: b.UnitID, Stay: b.Stay, Reason: reason, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.transition(StatusCompleted, now)
	b.Record(BookingCompleted{BookingID: b.ID, UnitID: b.UnitID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) MarkNoShow(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.transition(StatusNoShow, now)
	b.Record(NoShowRecorded{BookingID: b.ID, UnitID: b.UnitID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) transition(to Status, now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	b.Status = to
	b.UpdatedAt = now.UTC()
}

// NextCheckInAfter returns the earliest check-in strictly after d among active
// bookings. ok is false when there is none.
func NextCheckInAfter(bookings []*Booking, d daterange.Date) (daterange.Date, bool) {
	var next daterange.Date
	found := false
	for _, b := range bookings {
		if !b.Active() || !b.Stay.Start.After(d) {
			continue
		}
		if !found || b.Stay.Start.Before(next) {
			next = b.Stay.Start
			found = true
		}
	}
	return next, found
}

// ActiveOnly drops cancelled bookings.
func ActiveOnly(bookings []*Booking) []*Booking {
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Active() {
			out = append(out, b)
		}
	}
	return out
}
