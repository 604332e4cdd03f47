package overview

import (
	"sort"

	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

// CombinedDay is one date of the calendar used for multi-unit searches.
type CombinedDay struct {
	Date daterange.Date `json:"date"`
	// Price is the sum over all units and is nil on blocked dates.
	Price        *money.Money   `json:"price"`
	IsBlocked    bool           `json:"is_blocked"`
	BlockedUnits []units.UnitID `json:"blocked_units,omitempty"`
}

type GroupInfo struct {
	ID       units.GroupID  `json:"id"`
	Name     string         `json:"name"`
	Capacity int            `json:"total_capacity"`
	UnitIDs  []units.UnitID `json:"units"`
}

// Combined treats every active unit of every active group as one property: a
// date is free only when all of them are free. Check-in/check-out restrictions
// are not carried over.
type Combined struct {
	Start   daterange.Date   `json:"start"`
	End     daterange.Date   `json:"end"`
	Days    []CombinedDay    `json:"days"`
	MinStay int              `json:"min_stay"`
	GapDays int              `json:"gap_days"`
	Groups  []GroupInfo      `json:"groups"`
	Blocked []daterange.Date `json:"blocked_dates"`
}

// BuildCombined aggregates the active members of the active groups. Gap days
// count as blocked. MinStay and GapDays are the most restrictive values found.
func BuildCombined(start, end daterange.Date, groups []*units.Group, data map[units.UnitID]UnitInputs) *Combined {
	c := &Combined{Start: start, End: end, MinStay: 1}
	members := map[units.UnitID]UnitInputs{}
	for _, g := range groups {
		if g == nil || !g.Active {
			continue
		}
		gi := GroupInfo{ID: g.ID, Name: g.Name}
		for _, id := range g.UnitIDs {
			in, ok := data[id]
			if !ok || !in.Unit.IsActive() {
				continue
			}
			gi.UnitIDs = append(gi.UnitIDs, id)
			gi.Capacity += in.Unit.MaxGuests
			members[id] = in
		}
		c.Groups = append(c.Groups, gi)
	}
	ids := make([]units.UnitID, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	window, err := daterange.Inclusive(start, end)
	if err != nil || len(ids) == 0 {
		return c
	}
	cals := make([]*availability.Calendar, len(ids))
	for i, id := range ids {
		in := members[id]
		cals[i] = availability.BuildCalendar(in.Unit, start, end, in.Inputs)
		if cals[i].MinStay > c.MinStay {
			c.MinStay = cals[i].MinStay
		}
		if cals[i].GapDays > c.GapDays {
			c.GapDays = cals[i].GapDays
		}
	}
	for _, d := range window.Days() {
		day := CombinedDay{Date: d}
		var sum money.Money
		for i, cal := range cals {
			cd, ok := cal.Day(d)
			if !ok {
				continue
			}
			if cd.IsBlocked || cd.GapBlocked {
				day.BlockedUnits = append(day.BlockedUnits, ids[i])
				continue
			}
			if cd.Price != nil {
				sum = sum.Add(*cd.Price)
			}
		}
		if len(day.BlockedUnits) > 0 {
			day.IsBlocked = true
			c.Blocked = append(c.Blocked, d)
		} else if !sum.IsZero() {
			day.Price = &sum
		}
		c.Days = append(c.Days, day)
	}
	return c
}

// Calendar exposes the combined view as a single calendar so the selection
// controller can drive it in combined mode.
func (c *Combined) Calendar() *availability.Calendar {
	days := make([]availability.CalendarDay, 0, len(c.Days))
	for _, d := range c.Days {
		days = append(days, availability.CalendarDay{Date: d.Date, Price: d.Price, IsBlocked: d.IsBlocked})
	}
	return availability.FromDays("", days, c.MinStay, c.GapDays, nil)
}
