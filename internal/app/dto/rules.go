package dto

import (
	"time"

	"rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
)

type PriceRule struct {
	ID        string         `json:"id"`
	UnitID    string         `json:"unit_id"`
	StartDate daterange.Date `json:"start_date"`
	EndDate   daterange.Date `json:"end_date"`
	Price     *money.Money   `json:"price"`
	MinNights int            `json:"min_nights,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func MapPriceRule(r *rules.PriceRule) PriceRule {
	return PriceRule{
		ID: string(r.ID), UnitID: string(r.UnitID), StartDate: r.Start, EndDate: r.End,
		Price: r.Price, MinNights: r.MinNights, CreatedAt: r.CreatedAt,
	}
}

type ClosureRule struct {
	ID         string         `json:"id"`
	UnitID     string         `json:"unit_id"`
	StartDate  daterange.Date `json:"start_date"`
	EndDate    daterange.Date `json:"end_date"`
	Reason     string         `json:"reason"`
	IsExternal bool           `json:"is_external"`
	Calendar   string         `json:"calendar,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func MapClosure(c *rules.ClosureRule) ClosureRule {
	return ClosureRule{
		ID: string(c.ID), UnitID: string(c.UnitID), StartDate: c.Start, EndDate: c.End,
		Reason: c.Reason, IsExternal: c.External, Calendar: c.Calendar, CreatedAt: c.CreatedAt,
	}
}

type CheckInOutRule struct {
	ID           string          `json:"id"`
	UnitID       string          `json:"unit_id"`
	RuleType     string          `json:"rule_type"`
	Recurrence   string          `json:"recurrence_type"`
	SpecificDate *daterange.Date `json:"specific_date"`
	DayOfWeek    *int            `json:"day_of_week"`
	CreatedAt    time.Time       `json:"created_at"`
}

func MapCheckInOut(r *rules.CheckInOutRule) CheckInOutRule {
	return CheckInOutRule{
		ID: string(r.ID), UnitID: string(r.UnitID), RuleType: string(r.Type), Recurrence: string(r.Recurrence),
		SpecificDate: r.SpecificDate, DayOfWeek: r.DayOfWeek, CreatedAt: r.CreatedAt,
	}
}

func MapPriceRules(in []*rules.PriceRule) []PriceRule {
	out := make([]PriceRule, 0, len(in))
	for _, r := range in {
		if r != nil {
			out = append(out, MapPriceRule(r))
		}
	}
	return out
}

func MapClosures(in []*rules.ClosureRule) []ClosureRule {
	out := make([]ClosureRule, 0, len(in))
	for _, c := range in {
		if c != nil {
			out = append(out, MapClosure(c))
		}
	}
	return out
}

func MapCheckInOuts(in []*rules.CheckInOutRule) []CheckInOutRule {
	out := make([]CheckInOutRule, 0, len(in))
	for _, r := range in {
		if r != nil {
			out = append(out, MapCheckInOut(r))
		}
	}
	return out
}
