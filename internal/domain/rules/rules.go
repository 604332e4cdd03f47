package rules

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/events"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

var (
	ErrNotFound          = errors.New("rules: not found")
	ErrUnitRequired      = errors.New("rules: unit is required")
	ErrDatesRequired     = errors.New("rules: start and end dates are required")
	ErrEndBeforeStart    = errors.New("rules: end date must not be before start date")
	ErrEmptyClosure      = errors.New("rules: closure end must be after its start")
	ErrPriceRequired     = errors.New("rules: price is required")
	ErrNegativePrice     = errors.New("rules: price must be non-negative")
	ErrNegativeMinNights = errors.New("rules: min nights must be non-negative")
	ErrRuleType          = errors.New("rules: rule type must be no_checkin or no_checkout")
	ErrRecurrence        = errors.New("rules: recurrence must be specific_date or weekly")
	ErrRecurrenceFields  = errors.New("rules: exactly one of specific_date or day_of_week must be set, matching the recurrence")
	ErrDayOfWeek         = errors.New("rules: day of week must be between 0 and 6")
)

type RuleID string

type Kind string

const (
	KindPrice      Kind = "price"
	KindClosure    Kind = "closure"
	KindCheckInOut Kind = "checkinout"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindPrice, "price-rules", "price_rules":
		return KindPrice, true
	case KindClosure, "closure-rules", "closure_rules":
		return KindClosure, true
	case KindCheckInOut, "checkinout-rules", "checkinout_rules":
		return KindCheckInOut, true
	default:
		return "", false
	}
}

// PriceRule sets the nightly price for every date in the inclusive range [Start, End].
type PriceRule struct {
	ID     RuleID
	UnitID units.UnitID
	Start  daterange.Date
	End    daterange.Date
	// Price is nil when the stored value was missing or could not be parsed.
	Price *money.Money
	// MinNights overrides the unit minimum stay for stays inside the rule; zero means no override.
	MinNights int
	CreatedAt time.Time
	events.EventRecorder
}

// ClosureRule blocks the nights [Start, End).
type ClosureRule struct {
	ID       RuleID
	UnitID   units.UnitID
	Start    daterange.Date
	End      daterange.Date
	Reason   string
	External bool
	// Calendar names the external feed that produced the closure.
	Calendar  string
	CreatedAt time.Time
	events.EventRecorder
}

type RuleType string

const (
	NoCheckIn  RuleType = "no_checkin"
	NoCheckOut RuleType = "no_checkout"
)

type Recurrence string

const (
	SpecificDate Recurrence = "specific_date"
	Weekly       Recurrence = "weekly"
)

// CheckInOutRule forbids arrivals or departures on one date or on a weekday (0=Monday).
type CheckInOutRule struct {
	ID           RuleID
	UnitID       units.UnitID
	Type         RuleType
	Recurrence   Recurrence
	SpecificDate *daterange.Date
	DayOfWeek    *int
	CreatedAt    time.Time
	events.EventRecorder
}

type PriceRuleRepository interface {
	ByID(ctx context.Context, id RuleID) (*PriceRule, error)
	ListByUnit(ctx context.Context, unit units.UnitID, window *daterange.Range) ([]*PriceRule, error)
	Save(ctx context.Context, rule *PriceRule) error
	Delete(ctx context.Context, id RuleID) error
}

type ClosureRepository interface {
	ByID(ctx context.Context, id RuleID) (*ClosureRule, error)
	ListByUnit(ctx context.Context, unit units.UnitID, window *daterange.Range) ([]*ClosureRule, error)
	Save(ctx context.Context, rule *ClosureRule) error
	Delete(ctx context.Context, id RuleID) error
	// DeleteExternal removes the external closures of unit that came from calendar.
	DeleteExternal(ctx context.Context, unit units.UnitID, calendar string) (int, error)
}

type CheckInOutRepository interface {
	ByID(ctx context.Context, id RuleID) (*CheckInOutRule, error)
	ListByUnit(ctx context.Context, unit units.UnitID) ([]*CheckInOutRule, error)
	Save(ctx context.Context, rule *CheckInOutRule) error
	Delete(ctx context.Context, id RuleID) error
}
