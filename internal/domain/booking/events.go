package booking

import (
	"time"

	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

type BookingCreated struct {
	BookingID BookingID       `json:"booking_id"`
	UnitID    units.UnitID    `json:"unit_id"`
	Stay      daterange.Range `json:"stay"`
	Guests    int             `json:"guests"`
	Status    Status          `json:"status"`
	Total     money.Money     `json:"total"`
	At        time.Time       `json:"at"`
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID       `json:"booking_id"`
	UnitID    units.UnitID    `json:"unit_id"`
	Stay      daterange.Range `json:"stay"`
	At        time.Time       `json:"at"`
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID       `json:"booking_id"`
	UnitID    units.UnitID    `json:"unit_id"`
	Stay      daterange.Range `json:"stay"`
	Reason    string          `json:"reason,omitempty"`
	At        time.Time       `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID    `json:"booking_id"`
	UnitID    units.UnitID `json:"unit_id"`
	At        time.Time    `json:"at"`
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type NoShowRecorded struct {
	BookingID BookingID    `json:"booking_id"`
	UnitID    units.UnitID `json:"unit_id"`
	At        time.Time    `json:"at"`
}

func (e NoShowRecorded) EventName() string     { return "booking.no_show" }
func (e NoShowRecorded) AggregateID() string   { return string(e.BookingID) }
func (e NoShowRecorded) OccurredAt() time.Time { return e.At }
