package overview

import (
	"sort"

	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

// Palette is cycled over units sorted by id when a unit has no color of its own.
var Palette = []string{
	"#3b82f6", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6",
	"#ec4899", "#14b8a6", "#f97316", "#6366f1", "#84cc16",
}

// UnitInputs pairs a unit with the collections the availability engine reads for it.
type UnitInputs struct {
	Unit   *units.Unit
	Inputs availability.Inputs
}

type UnitInfo struct {
	ID     units.UnitID `json:"id"`
	Title  string       `json:"title"`
	Color  string       `json:"color"`
	Active bool         `json:"active"`
}

// DaySummary aggregates one date across every unit of the overview.
type DaySummary struct {
	Date daterange.Date `json:"date"`
	// MinPrice and MaxPrice are nil when no unit has a price on the date.
	MinPrice           *money.Money `json:"min_price"`
	MaxPrice           *money.Money `json:"max_price"`
	BlockedUnits       int          `json:"blocked_units"`
	AvailableUnits     int          `json:"available_units"`
	HasExternalBooking bool         `json:"has_external_booking"`
}

type Global struct {
	Start     daterange.Date                                               `json:"start"`
	End       daterange.Date                                               `json:"end"`
	Units     []UnitInfo                                                   `json:"units"`
	Days      map[daterange.Date]map[units.UnitID]availability.CalendarDay `json:"days"`
	Summaries []DaySummary                                                 `json:"summaries"`
}

// BuildGlobal runs the availability engine once per unit over [start, end]
// and folds the results into a shared date grid.
func BuildGlobal(start, end daterange.Date, data []UnitInputs) *Global {
	g := &Global{Start: start, End: end, Days: map[daterange.Date]map[units.UnitID]availability.CalendarDay{}}
	entries := make([]UnitInputs, 0, len(data))
	for _, d := range data {
		if d.Unit != nil {
			entries = append(entries, d)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Unit.ID < entries[j].Unit.ID })

	window, err := daterange.Inclusive(start, end)
	if err != nil {
		for i, e := range entries {
			g.Units = append(g.Units, info(e.Unit, i))
		}
		return g
	}
	days := window.Days()
	for _, d := range days {
		g.Days[d] = make(map[units.UnitID]availability.CalendarDay, len(entries))
	}
	for i, e := range entries {
		g.Units = append(g.Units, info(e.Unit, i))
		cal := availability.BuildCalendar(e.Unit, start, end, e.Inputs)
		for _, day := range cal.Days {
			g.Days[day.Date][e.Unit.ID] = day
		}
	}
	for _, d := range days {
		g.Summaries = append(g.Summaries, summarize(d, g.Days[d]))
	}
	return g
}

// Summary returns the aggregate for d, or false outside the window.
func (g *Global) Summary(d daterange.Date) (DaySummary, bool) {
	if g == nil || d.Before(g.Start) || d.After(g.End) {
		return DaySummary{}, false
	}
	i := g.Start.DaysUntil(d)
	if i < 0 || i >= len(g.Summaries) {
		return DaySummary{}, false
	}
	return g.Summaries[i], true
}

func summarize(d daterange.Date, byUnit map[units.UnitID]availability.CalendarDay) DaySummary {
	s := DaySummary{Date: d}
	for _, day := range byUnit {
		if day.IsBlocked {
			s.BlockedUnits++
			if day.External {
				s.HasExternalBooking = true
			}
		} else {
			s.AvailableUnits++
		}
		if day.Price == nil {
			continue
		}
		p := *day.Price
		if s.MinPrice == nil || p.Less(*s.MinPrice) {
			s.MinPrice = &p
		}
		if s.MaxPrice == nil || s.MaxPrice.Less(p) {
			q := p
			s.MaxPrice = &q
		}
	}
	return s
}

func info(u *units.Unit, index int) UnitInfo {
	return UnitInfo{ID: u.ID, Title: u.Title, Color: ColorFor(u, index), Active: u.IsActive()}
}

// ColorFor returns the unit's own color or the palette entry for its position.
func ColorFor(u *units.Unit, index int) string {
	if u != nil && u.Color != "" {
		return u.Color
	}
	if index < 0 {
		index = -index
	}
	return Palette[index%len(Palette)]
}
