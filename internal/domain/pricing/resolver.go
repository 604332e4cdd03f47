package pricing

import (
	"sort"

	"rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

// Resolver answers nightly-price questions for one unit. Rules are filtered and
// ordered once so a calendar window costs one pass per date.
type Resolver struct {
	unit  *units.Unit
	rules []*rules.PriceRule
	// minStay keeps rules that carry a min-nights override, even without a usable price.
	minStay []*rules.PriceRule
}

// NewResolver keeps the rules of unit ordered by start date descending. Rules with
// the same start are ordered newest first, then by id.
func NewResolver(unit *units.Unit, all []*rules.PriceRule) *Resolver {
	r := &Resolver{unit: unit}
	if unit == nil {
		return r
	}
	for _, rule := range all {
		if rule == nil || rule.UnitID != unit.ID {
			continue
		}
		if rule.MinNights > 0 && !rule.Start.IsZero() && !rule.End.IsZero() && !rule.End.Before(rule.Start) {
			r.minStay = append(r.minStay, rule)
		}
		if !rule.Usable() {
			continue
		}
		r.rules = append(r.rules, rule)
	}
	sort.SliceStable(r.rules, func(i, j int) bool {
		a, b := r.rules[i], r.rules[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.After(b.Start)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return r
}

// Price returns the price of the first rule covering d, or the unit base price.
func (r *Resolver) Price(d daterange.Date) money.Money {
	if rule := r.Match(d); rule != nil {
		return *rule.Price
	}
	if r.unit == nil {
		return money.Money{}
	}
	return r.unit.BasePrice
}

// Match returns the winning rule for d, or nil when the base price applies.
func (r *Resolver) Match(d daterange.Date) *rules.PriceRule {
	for _, rule := range r.rules {
		if rule.Covers(d) {
			return rule
		}
	}
	return nil
}

// MinStay returns the minimum stay for stay: the smallest override among rules
// covering every night of it, otherwise the unit default.
func (r *Resolver) MinStay(stay daterange.Range) int {
	best := 0
	for _, rule := range r.minStay {
		if !rule.CoversStay(stay) {
			continue
		}
		if best == 0 || rule.MinNights < best {
			best = rule.MinNights
		}
	}
	if best > 0 {
		return best
	}
	return r.unit.MinStay()
}

// MinStayFrom returns the minimum stay that applies to an arrival on checkIn
// before the departure is known: the smallest override among rules covering checkIn.
func (r *Resolver) MinStayFrom(checkIn daterange.Date) int {
	best := 0
	for _, rule := range r.minStay {
		if !rule.Covers(checkIn) {
			continue
		}
		if best == 0 || rule.MinNights < best {
			best = rule.MinNights
		}
	}
	if best > 0 {
		return best
	}
	return r.unit.MinStay()
}

// PriceFor resolves the nightly price of unit on d.
func PriceFor(d daterange.Date, unit *units.Unit, all []*rules.PriceRule) money.Money {
	return NewResolver(unit, all).Price(d)
}

// MinStayFor resolves the minimum stay of unit for stay.
func MinStayFor(unit *units.Unit, stay daterange.Range, all []*rules.PriceRule) int {
	return NewResolver(unit, all).MinStay(stay)
}
