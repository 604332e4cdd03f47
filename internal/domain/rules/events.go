package rules

import (
	"time"

	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

type PriceRuleSavedEvent struct {
	RuleID    RuleID         `json:"rule_id"`
	UnitID    units.UnitID   `json:"unit_id"`
	Start     daterange.Date `json:"start_date"`
	End       daterange.Date `json:"end_date"`
	Price     money.Money    `json:"price"`
	MinNights int            `json:"min_nights,omitempty"`
	At        time.Time      `json:"at"`
}

func (e PriceRuleSavedEvent) EventName() string     { return "price_rule.saved" }
func (e PriceRuleSavedEvent) AggregateID() string   { return string(e.UnitID) }
func (e PriceRuleSavedEvent) OccurredAt() time.Time { return e.At }

type ClosureCreatedEvent struct {
	RuleID   RuleID         `json:"rule_id"`
	UnitID   units.UnitID   `json:"unit_id"`
	Start    daterange.Date `json:"start_date"`
	End      daterange.Date `json:"end_date"`
	Reason   string         `json:"reason,omitempty"`
	External bool           `json:"is_external_booking"`
	At       time.Time      `json:"at"`
}

func (e ClosureCreatedEvent) EventName() string     { return "closure.created" }
func (e ClosureCreatedEvent) AggregateID() string   { return string(e.UnitID) }
func (e ClosureCreatedEvent) OccurredAt() time.Time { return e.At }

type CheckInOutRuleCreatedEvent struct {
	RuleID       RuleID          `json:"rule_id"`
	UnitID       units.UnitID    `json:"unit_id"`
	Type         RuleType        `json:"rule_type"`
	Recurrence   Recurrence      `json:"recurrence_type"`
	SpecificDate *daterange.Date `json:"specific_date,omitempty"`
	DayOfWeek    *int            `json:"day_of_week,omitempty"`
	At           time.Time       `json:"at"`
}

func (e CheckInOutRuleCreatedEvent) EventName() string     { return "checkinout_rule.created" }
func (e CheckInOutRuleCreatedEvent) AggregateID() string   { return string(e.UnitID) }
func (e CheckInOutRuleCreatedEvent) OccurredAt() time.Time { return e.At }

type RuleDeletedEvent struct {
	RuleID RuleID       `json:"rule_id"`
	UnitID units.UnitID `json:"unit_id"`
	Kind   Kind         `json:"kind"`
	At     time.Time    `json:"at"`
}

func (e RuleDeletedEvent) EventName() string     { return "rule.deleted" }
func (e RuleDeletedEvent) AggregateID() string   { return string(e.UnitID) }
func (e RuleDeletedEvent) OccurredAt() time.Time { return e.At }

type ExternalClosuresSyncedEvent struct {
	UnitID   units.UnitID `json:"unit_id"`
	Calendar string       `json:"calendar"`
	Provider string       `json:"provider"`
	Removed  int          `json:"removed"`
	Added    int          `json:"added"`
	At       time.Time    `json:"at"`
}

func (e ExternalClosuresSyncedEvent) EventName() string     { return "closures.synced" }
func (e ExternalClosuresSyncedEvent) AggregateID() string   { return string(e.UnitID) }
func (e ExternalClosuresSyncedEvent) OccurredAt() time.Time { return e.At }
