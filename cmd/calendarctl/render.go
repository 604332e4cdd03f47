package main

import (
	"fmt"
	"io"
	"strings"

	"rentcal/internal/domain/selection"
	"rentcal/internal/domain/shared/daterange"
)

// cellMarker picks the one-character suffix drawn next to a day number.
func cellMarker(st selection.DayState) string {
	switch {
	case st.IsCheckIn:
		return "["
	case st.IsCheckOut:
		return "]"
	case st.InRange || st.InHoverRange:
		return "="
	case st.IsSelected:
		return "*"
	case st.IsPast:
		return "."
	case st.IsBlocked:
		return "x"
	case st.GapBlocked:
		return "g"
	case st.AfterNextBooking:
		return ">"
	case st.CheckinDisabled:
		return "-"
	default:
		return " "
	}
}

// renderMonth draws the month containing month as a Monday-first grid.
func renderMonth(w io.Writer, month daterange.Date, states map[daterange.Date]selection.DayState, withPrices bool) {
	first := month.FirstOfMonth(0)
	last := month.FirstOfMonth(1).AddDays(-1)
	fmt.Fprintf(w, "%s %d\n", first.Month, first.Year)
	width := 4
	if withPrices {
		width = 9
	}
	for _, name := range []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"} {
		fmt.Fprintf(w, "%-*s", width, name)
	}
	fmt.Fprintln(w)

	fmt.Fprint(w, strings.Repeat(" ", first.WeekdayIndex()*width))
	for d := first; !d.After(last); d = d.AddDays(1) {
		st, ok := states[d]
		cell := fmt.Sprintf("%2d", d.Day)
		if ok {
			cell += cellMarker(st)
			if withPrices && st.ShowPrice && st.Price != nil {
				cell += fmt.Sprintf("%-5.0f", st.Price.Float())
			}
		}
		fmt.Fprintf(w, "%-*s", width, cell)
		if d.WeekdayIndex() == 6 {
			fmt.Fprintln(w)
		}
	}
	if last.WeekdayIndex() != 6 {
		fmt.Fprintln(w)
	}
}

func statesByDate(list []selection.DayState) map[daterange.Date]selection.DayState {
	out := make(map[daterange.Date]selection.DayState, len(list))
	for _, st := range list {
		out[st.Date] = st
	}
	return out
}

const legend = "[ check-in  ] check-out  = stay  x blocked  g gap  > after next booking  - no check-in  . past"
