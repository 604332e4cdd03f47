package overview

import (
	"errors"
	"fmt"
	"time"

	"rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

var ErrNoUnits = errors.New("overview: at least one unit is required")

// BulkPriceParams describes one price applied to the same inclusive range of several units.
type BulkPriceParams struct {
	UnitIDs   []units.UnitID
	Start     daterange.Date
	End       daterange.Date
	Price     money.Money
	MinNights int
	NewID     func() rules.RuleID
	Now       time.Time
}

// FanOutPriceRules builds one price rule per distinct unit. Nothing is
// returned unless every rule is valid.
func FanOutPriceRules(p BulkPriceParams) ([]*rules.PriceRule, error) {
	seen := make(map[units.UnitID]struct{}, len(p.UnitIDs))
	out := make([]*rules.PriceRule, 0, len(p.UnitIDs))
	for _, id := range p.UnitIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		var ruleID rules.RuleID
		if p.NewID != nil {
			ruleID = p.NewID()
		}
		price := p.Price
		rule, err := rules.NewPriceRule(rules.NewPriceRuleParams{
			ID: ruleID, UnitID: id, Start: p.Start, End: p.End,
			Price: &price, MinNights: p.MinNights, Now: p.Now,
		})
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", id, err)
		}
		out = append(out, rule)
	}
	if len(out) == 0 {
		return nil, ErrNoUnits
	}
	return out, nil
}
