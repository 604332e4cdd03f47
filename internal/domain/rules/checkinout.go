package rules

import (
	"strings"
	"time"

	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

type NewCheckInOutParams struct {
	ID           RuleID
	UnitID       units.UnitID
	Type         RuleType
	Recurrence   Recurrence
	SpecificDate *daterange.Date
	DayOfWeek    *int
	Now          time.Time
}

func NewCheckInOutRule(p NewCheckInOutParams) (*CheckInOutRule, error) {
	if strings.TrimSpace(string(p.UnitID)) == "" {
		return nil, ErrUnitRequired
	}
	if p.Type != NoCheckIn && p.Type != NoCheckOut {
		return nil, ErrRuleType
	}
	switch p.Recurrence {
	case SpecificDate:
		if p.SpecificDate == nil || p.SpecificDate.IsZero() || p.DayOfWeek != nil {
			return nil, ErrRecurrenceFields
		}
	case Weekly:
		if p.DayOfWeek == nil || (p.SpecificDate != nil && !p.SpecificDate.IsZero()) {
			return nil, ErrRecurrenceFields
		}
		if *p.DayOfWeek < 0 || *p.DayOfWeek > 6 {
			return nil, ErrDayOfWeek
		}
	default:
		return nil, ErrRecurrence
	}
	r := &CheckInOutRule{
		ID:         p.ID,
		UnitID:     p.UnitID,
		Type:       p.Type,
		Recurrence: p.Recurrence,
		CreatedAt:  nowUTC(p.Now),
	}
	if p.Recurrence == SpecificDate {
		d := *p.SpecificDate
		r.SpecificDate = &d
	} else {
		dow := *p.DayOfWeek
		r.DayOfWeek = &dow
	}
	r.Record(CheckInOutRuleCreatedEvent{
		RuleID: r.ID, UnitID: r.UnitID, Type: r.Type, Recurrence: r.Recurrence,
		SpecificDate: r.SpecificDate, DayOfWeek: r.DayOfWeek, At: r.CreatedAt,
	})
	return r, nil
}

// Matches reports whether the rule applies to d. Rules whose fields disagree with
// their recurrence never match.
func (r *CheckInOutRule) Matches(d daterange.Date) bool {
	if r == nil {
		return false
	}
	switch r.Recurrence {
	case SpecificDate:
		return r.SpecificDate != nil && r.DayOfWeek == nil && r.SpecificDate.Equal(d)
	case Weekly:
		return r.DayOfWeek != nil && r.SpecificDate == nil && *r.DayOfWeek == d.WeekdayIndex()
	default:
		return false
	}
}

func (r *CheckInOutRule) ForbidsCheckIn(d daterange.Date) bool {
	return r != nil && r.Type == NoCheckIn && r.Matches(d)
}

func (r *CheckInOutRule) ForbidsCheckOut(d daterange.Date) bool {
	return r != nil && r.Type == NoCheckOut && r.Matches(d)
}
