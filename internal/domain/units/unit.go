package units

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/events"
	"rentcal/internal/domain/shared/money"
)

var (
	ErrNotFound         = errors.New("units: not found")
	ErrIDRequired       = errors.New("units: id is required")
	ErrTitleRequired    = errors.New("units: title is required")
	ErrGuestsLimit      = errors.New("units: max guests must be at least 1")
	ErrIncludedGuests   = errors.New("units: included guests must be between 0 and max guests")
	ErrNegativePrice    = errors.New("units: prices and fees must be non-negative")
	ErrNegativeSetting  = errors.New("units: stay and advance settings must be non-negative")
	ErrAdvanceWindow    = errors.New("units: max booking advance must be >= min booking advance")
	ErrInvalidState     = errors.New("units: invalid state transition")
	ErrGroupNotFound    = errors.New("units: group not found")
	ErrGroupNameMissing = errors.New("units: group name is required")
)

type UnitID string

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Unit is a single bookable listing. Calendar computations treat it as read-only.
type Unit struct {
	ID             UnitID
	Title          string
	Status         Status
	BasePrice      money.Money
	CleaningFee    money.Money
	ExtraGuestFee  money.Money
	MaxGuests      int
	IncludedGuests int
	Bedrooms       int
	Bathrooms      float64
	// MinStayNights is the default minimum stay; price rules may override it.
	MinStayNights int
	// GapDays is the number of empty nights required around every booking.
	GapDays int
	// MinBookingAdvance and MaxBookingAdvance are expressed in days; zero disables the limit.
	MinBookingAdvance int
	MaxBookingAdvance int
	// AvailableFrom is the first date the unit existed; zero means always.
	AvailableFrom daterange.Date
	Color         string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id UnitID) (*Unit, error)
	List(ctx context.Context) ([]*Unit, error)
	Save(ctx context.Context, unit *Unit) error
}

type CreateUnitParams struct {
	ID                UnitID
	Title             string
	Status            Status
	BasePrice         money.Money
	CleaningFee       money.Money
	ExtraGuestFee     money.Money
	MaxGuests         int
	IncludedGuests    int
	Bedrooms          int
	Bathrooms         float64
	MinStayNights     int
	GapDays           int
	MinBookingAdvance int
	MaxBookingAdvance int
	AvailableFrom     daterange.Date
	Color             string
	Now               time.Time
}

func NewUnit(params CreateUnitParams) (*Unit, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.MaxGuests < 1 {
		return nil, ErrGuestsLimit
	}
	included := params.IncludedGuests
	if included == 0 {
		included = params.MaxGuests
	}
	if included < 0 || included > params.MaxGuests {
		return nil, ErrIncludedGuests
	}
	if params.BasePrice.IsNegative() || params.CleaningFee.IsNegative() || params.ExtraGuestFee.IsNegative() {
		return nil, ErrNegativePrice
	}
	if params.MinStayNights < 0 || params.GapDays < 0 || params.MinBookingAdvance < 0 || params.MaxBookingAdvance < 0 {
		return nil, ErrNegativeSetting
	}
	if params.MaxBookingAdvance > 0 && params.MaxBookingAdvance < params.MinBookingAdvance {
		return nil, ErrAdvanceWindow
	}
	status := params.Status
	if status == "" {
		status = StatusDraft
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Unit{
		ID:                params.ID,
		Title:             strings.TrimSpace(params.Title),
		Status:            status,
		BasePrice:         params.BasePrice,
		CleaningFee:       params.CleaningFee,
		ExtraGuestFee:     params.ExtraGuestFee,
		MaxGuests:         params.MaxGuests,
		IncludedGuests:    included,
		Bedrooms:          params.Bedrooms,
		Bathrooms:         params.Bathrooms,
		MinStayNights:     params.MinStayNights,
		GapDays:           params.GapDays,
		MinBookingAdvance: params.MinBookingAdvance,
		MaxBookingAdvance: params.MaxBookingAdvance,
		AvailableFrom:     params.AvailableFrom,
		Color:             params.Color,
		CreatedAt:         now.UTC(),
		UpdatedAt:         now.UTC(),
	}, nil
}

// MinStay is the unit's default minimum stay, never below one night.
func (u *Unit) MinStay() int {
	if u == nil || u.MinStayNights < 1 {
		return 1
	}
	return u.MinStayNights
}

func (u *Unit) IsActive() bool {
	return u != nil && u.Status == StatusActive
}

// ExistsOn reports whether the unit is defined for d.
func (u *Unit) ExistsOn(d daterange.Date) bool {
	if u == nil {
		return false
	}
	return u.AvailableFrom.IsZero() || !d.Before(u.AvailableFrom)
}

// ExtraGuests returns how many of guests exceed the included-guest threshold.
func (u *Unit) ExtraGuests(guests int) int {
	if u == nil || guests <= u.IncludedGuests {
		return 0
	}
	return guests - u.IncludedGuests
}

func (u *Unit) Activate(now time.Time) error {
	if u.Status == StatusActive {
		return nil
	}
	u.Status = StatusActive
	u.touch(now)
	u.Record(UnitStatusChangedEvent{UnitID: u.ID, Status: u.Status, At: u.UpdatedAt})
	return nil
}

func (u *Unit) Deactivate(now time.Time) error {
	if u.Status == StatusDraft {
		return ErrInvalidState
	}
	if u.Status == StatusInactive {
		return nil
	}
	u.Status = StatusInactive
	u.touch(now)
	u.Record(UnitStatusChangedEvent{UnitID: u.ID, Status: u.Status, At: u.UpdatedAt})
	return nil
}

func (u *Unit) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}
