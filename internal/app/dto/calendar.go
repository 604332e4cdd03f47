package dto

import (
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
)

// BlockedRange is an inclusive run of blocked dates.
type BlockedRange struct {
	From daterange.Date `json:"from"`
	To   daterange.Date `json:"to"`
}

type Calendar struct {
	UnitID        string                     `json:"unit_id"`
	Start         daterange.Date             `json:"start"`
	End           daterange.Date             `json:"end"`
	Days          []availability.CalendarDay `json:"days"`
	BlockedRanges []BlockedRange             `json:"blocked_ranges"`
	CheckIns      []daterange.Date           `json:"check_ins"`
	MinStay       int                        `json:"min_stay"`
	GapDays       int                        `json:"gap_days"`
	Bookings      []Booking                  `json:"bookings,omitempty"`
}

func MapCalendar(cal *availability.Calendar, bookings []Booking) Calendar {
	out := Calendar{
		UnitID:        string(cal.UnitID),
		Start:         cal.Start,
		End:           cal.End,
		Days:          cal.Days,
		MinStay:       cal.MinStay,
		GapDays:       cal.GapDays,
		Bookings:      bookings,
		BlockedRanges: []BlockedRange{},
		CheckIns:      cal.CheckIns(),
	}
	if out.Days == nil {
		out.Days = []availability.CalendarDay{}
	}
	for _, r := range cal.BlockedRanges() {
		out.BlockedRanges = append(out.BlockedRanges, BlockedRange{From: r.Start, To: r.Last()})
	}
	return out
}

// RangeCheck is the answer to a stay re-validation.
type RangeCheck struct {
	Available bool            `json:"available"`
	Reason    string          `json:"reason,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	Date      *daterange.Date `json:"date,omitempty"`
	Nights    int             `json:"nights"`
	MinStay   int             `json:"min_stay"`
}

type Price struct {
	UnitID   string         `json:"unit_id"`
	Date     daterange.Date `json:"date"`
	Price    float64        `json:"price"`
	IsCustom bool           `json:"is_custom"`
}
