package units

import "time"

type UnitStatusChangedEvent struct {
	UnitID UnitID    `json:"unit_id"`
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
}

func (e UnitStatusChangedEvent) EventName() string     { return "unit.status_changed" }
func (e UnitStatusChangedEvent) AggregateID() string   { return string(e.UnitID) }
func (e UnitStatusChangedEvent) OccurredAt() time.Time { return e.At }
