package selection

import (
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
)

type State int

const (
	Idle State = iota
	AwaitingCheckout
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingCheckout:
		return "awaiting_checkout"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Mode selects which per-date restrictions apply.
type Mode int

const (
	// ModeSingle enforces blocking, check-in/check-out rules and the next booking cap.
	ModeSingle Mode = iota
	// ModeCombined only refuses past dates; availability is checked by combination search.
	ModeCombined
	// ModeBulk toggles individual dates for admin rule editing.
	ModeBulk
)

func (m Mode) String() string {
	switch m {
	case ModeCombined:
		return "combined"
	case ModeBulk:
		return "bulk"
	default:
		return "single"
	}
}

// SelectionState is the transient selection of one calendar instance.
// Zero dates mean "not set".
type SelectionState struct {
	CheckIn             daterange.Date   `json:"selected_check_in"`
	CheckOut            daterange.Date   `json:"selected_check_out"`
	IsSelectingCheckOut bool             `json:"is_selecting_check_out"`
	Hover               daterange.Date   `json:"hover_date"`
	Bulk                []daterange.Date `json:"bulk_dates,omitempty"`
}

func (s SelectionState) State() State {
	switch {
	case s.CheckIn.IsZero():
		return Idle
	case s.IsSelectingCheckOut:
		return AwaitingCheckout
	case !s.CheckOut.IsZero():
		return Complete
	default:
		return Idle
	}
}

// Range is the payload of the completion callback.
type Range struct {
	CheckIn  daterange.Date `json:"check_in"`
	CheckOut daterange.Date `json:"check_out"`
	Nights   int            `json:"nights"`
}

const (
	TipPast             = "Date in the past"
	TipUnavailable      = "Not available"
	TipNoCheckIn        = "Check-in not available on this date"
	TipNoCheckOut       = "Check-out not available on this date"
	TipGap              = "Free nights are required between bookings"
	TipAfterNextBooking = "Not available: existing booking"
	TipBlockedBetween   = "Not available: dates in between are booked"
)

// DayState is everything a renderer needs to draw one calendar cell.
type DayState struct {
	Date             daterange.Date `json:"date"`
	Price            *money.Money   `json:"price,omitempty"`
	ShowPrice        bool           `json:"show_price"`
	IsPast           bool           `json:"is_past"`
	IsBlocked        bool           `json:"is_blocked"`
	CheckinDisabled  bool           `json:"checkin_disabled"`
	CheckoutDisabled bool           `json:"checkout_disabled"`
	GapBlocked       bool           `json:"gap_blocked"`
	AfterNextBooking bool           `json:"after_next_booking"`
	IsCheckIn        bool           `json:"is_check_in"`
	IsCheckOut       bool           `json:"is_check_out"`
	InRange          bool           `json:"in_range"`
	InHoverRange     bool           `json:"in_hover_range"`
	IsSelected       bool           `json:"is_selected"`
	Selectable       bool           `json:"selectable"`
	Tooltip          string         `json:"tooltip,omitempty"`
}

// ComputeDayState derives the cell state of d. cal may be nil when no
// availability data is loaded; d is then only constrained by today.
func ComputeDayState(d, today daterange.Date, cal *availability.Calendar, sel SelectionState, mode Mode) DayState {
	st := DayState{Date: d, IsPast: d.Before(today)}
	day, _ := cal.Day(d)
	st.Price = day.Price
	st.IsBlocked = day.IsBlocked
	st.CheckinDisabled = day.CheckinDisabled
	st.CheckoutDisabled = day.CheckoutDisabled
	st.GapBlocked = day.GapBlocked

	st.IsCheckIn = !sel.CheckIn.IsZero() && d.Equal(sel.CheckIn)
	st.IsCheckOut = !sel.CheckOut.IsZero() && d.Equal(sel.CheckOut)
	st.IsSelected = st.IsCheckIn || st.IsCheckOut || containsDate(sel.Bulk, d)
	if !sel.CheckIn.IsZero() && !sel.CheckOut.IsZero() {
		st.InRange = d.After(sel.CheckIn) && d.Before(sel.CheckOut)
	}
	if sel.IsSelectingCheckOut && !sel.CheckIn.IsZero() && !sel.Hover.IsZero() {
		lo, hi := sel.CheckIn, sel.Hover
		if hi.Before(lo) {
			lo, hi = hi, lo
		}
		st.InHoverRange = !d.Before(lo) && !d.After(hi)
	}
	st.ShowPrice = st.Price != nil && !st.IsPast && !st.IsBlocked && mode != ModeCombined

	if st.IsPast {
		st.Tooltip = TipPast
		return st
	}
	switch mode {
	case ModeCombined, ModeBulk:
		st.Selectable = true
		return st
	}

	awaiting := sel.IsSelectingCheckOut && !sel.CheckIn.IsZero()
	if awaiting {
		if next, ok := cal.NextBookingAfter(sel.CheckIn); ok {
			st.AfterNextBooking = d.After(next)
		}
	}
	if !awaiting || !d.After(sel.CheckIn) {
		st.Selectable, st.Tooltip = checkInState(day)
		return st
	}
	switch {
	case st.AfterNextBooking:
		st.Tooltip = TipAfterNextBooking
	case !cal.FreeThrough(sel.CheckIn, d):
		st.Tooltip = TipBlockedBetween
	case st.CheckoutDisabled:
		st.Tooltip = TipNoCheckOut
	default:
		st.Selectable = true
		if st.IsBlocked {
			st.Tooltip = reasonOr(day, TipUnavailable)
		}
	}
	return st
}

func checkInState(day availability.CalendarDay) (bool, string) {
	switch {
	case day.IsBlocked:
		return false, reasonOr(day, TipUnavailable)
	case day.CheckinDisabled:
		return false, TipNoCheckIn
	case day.GapBlocked:
		return false, TipGap
	default:
		return true, ""
	}
}

func reasonOr(day availability.CalendarDay, fallback string) string {
	if day.BlockReason != nil && *day.BlockReason != "" {
		return *day.BlockReason
	}
	return fallback
}

func containsDate(list []daterange.Date, d daterange.Date) bool {
	for _, x := range list {
		if x.Equal(d) {
			return true
		}
	}
	return false
}
