package rules

import (
	"strings"
	"time"

	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

type NewPriceRuleParams struct {
	ID        RuleID
	UnitID    units.UnitID
	Start     daterange.Date
	End       daterange.Date
	Price     *money.Money
	MinNights int
	Now       time.Time
}

func NewPriceRule(p NewPriceRuleParams) (*PriceRule, error) {
	if strings.TrimSpace(string(p.UnitID)) == "" {
		return nil, ErrUnitRequired
	}
	if p.Start.IsZero() || p.End.IsZero() {
		return nil, ErrDatesRequired
	}
	if p.End.Before(p.Start) {
		return nil, ErrEndBeforeStart
	}
	if p.Price == nil {
		return nil, ErrPriceRequired
	}
	if p.Price.IsNegative() {
		return nil, ErrNegativePrice
	}
	if p.MinNights < 0 {
		return nil, ErrNegativeMinNights
	}
	price := *p.Price
	rule := &PriceRule{
		ID:        p.ID,
		UnitID:    p.UnitID,
		Start:     p.Start,
		End:       p.End,
		Price:     &price,
		MinNights: p.MinNights,
		CreatedAt: nowUTC(p.Now),
	}
	rule.Record(PriceRuleSavedEvent{
		RuleID: rule.ID, UnitID: rule.UnitID, Start: rule.Start, End: rule.End,
		Price: price, MinNights: rule.MinNights, At: rule.CreatedAt,
	})
	return rule, nil
}

// Covers reports whether d falls inside the inclusive range. Rules with missing dates cover nothing.
func (r *PriceRule) Covers(d daterange.Date) bool {
	if r == nil || r.Start.IsZero() || r.End.IsZero() {
		return false
	}
	return !d.Before(r.Start) && !d.After(r.End)
}

// CoversStay reports whether every night of stay is inside the rule.
func (r *PriceRule) CoversStay(stay daterange.Range) bool {
	return r.Covers(stay.Start) && r.Covers(stay.Last())
}

// Usable reports whether the rule can take part in price resolution.
func (r *PriceRule) Usable() bool {
	return r != nil && r.Price != nil && !r.Price.IsNegative() && !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

// SetPrice replaces the nightly price, used by price imports that overwrite a day.
func (r *PriceRule) SetPrice(price money.Money, now time.Time) error {
	if price.IsNegative() {
		return ErrNegativePrice
	}
	r.Price = &price
	r.Record(PriceRuleSavedEvent{
		RuleID: r.ID, UnitID: r.UnitID, Start: r.Start, End: r.End,
		Price: price, MinNights: r.MinNights, At: nowUTC(now),
	})
	return nil
}

func nowUTC(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	return now.UTC()
}
