package availability

import (
	"sort"

	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/pricing"
	"rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

// ReasonReserved is shown for bookings without a guest name.
const ReasonReserved = "reserved"

type BlockSource string

const (
	SourceNone     BlockSource = ""
	SourceBooking  BlockSource = "booking"
	SourceExternal BlockSource = "external"
	SourceClosure  BlockSource = "closure"
)

// CalendarDay is the derived state of one unit on one date.
type CalendarDay struct {
	Date daterange.Date `json:"date"`
	// Price is nil for dates before the unit existed.
	Price            *money.Money `json:"price"`
	IsCustomPrice    bool         `json:"is_custom_price"`
	IsBlocked        bool         `json:"is_blocked"`
	CheckinDisabled  bool         `json:"checkin_disabled"`
	CheckoutDisabled bool         `json:"checkout_disabled"`
	// GapBlocked marks free dates where an arrival would violate the gap between bookings.
	GapBlocked  bool        `json:"gap_blocked"`
	BlockReason *string     `json:"block_reason"`
	Source      BlockSource `json:"block_source,omitempty"`
	Provider    Provider    `json:"provider,omitempty"`
	Reference   string      `json:"reference,omitempty"`
	// External is set whenever a synced closure covers the date, even when a
	// booking takes precedence for the block reason.
	External bool `json:"external,omitempty"`
}

// Inputs are the per-unit collections the engine reads. Entries belonging to
// other units are ignored.
type Inputs struct {
	PriceRules []*rules.PriceRule
	Bookings   []*booking.Booking
	Closures   []*rules.ClosureRule
	CheckInOut []*rules.CheckInOutRule
}

// Calendar is the result of one build: ordered days plus lookups used by
// selection logic.
type Calendar struct {
	UnitID  units.UnitID
	Start   daterange.Date
	End     daterange.Date
	Days    []CalendarDay
	MinStay int
	GapDays int

	index       map[daterange.Date]int
	nextCheckIn []daterange.Date
	resolver    *pricing.Resolver
}

// BuildCalendar computes the state of every date in [start, end] inclusive.
// It never fails: malformed rules are skipped and an inverted window yields no days.
func BuildCalendar(unit *units.Unit, start, end daterange.Date, in Inputs) *Calendar {
	cal := &Calendar{Start: start, End: end, index: map[daterange.Date]int{}}
	if unit == nil || start.IsZero() || end.IsZero() || end.Before(start) {
		return cal
	}
	cal.UnitID = unit.ID
	cal.MinStay = unit.MinStay()
	cal.GapDays = unit.GapDays
	cal.resolver = pricing.NewResolver(unit, in.PriceRules)

	bookings := unitBookings(unit.ID, in.Bookings)
	for _, b := range bookings {
		cal.nextCheckIn = append(cal.nextCheckIn, b.Stay.Start)
	}
	sort.Slice(cal.nextCheckIn, func(i, j int) bool { return cal.nextCheckIn[i].Before(cal.nextCheckIn[j]) })

	closures := make([]*rules.ClosureRule, 0, len(in.Closures))
	for _, c := range in.Closures {
		if c == nil || c.UnitID != unit.ID {
			continue
		}
		if _, ok := c.Range(); ok {
			closures = append(closures, c)
		}
	}
	restrictions := make([]*rules.CheckInOutRule, 0, len(in.CheckInOut))
	for _, r := range in.CheckInOut {
		if r != nil && r.UnitID == unit.ID {
			restrictions = append(restrictions, r)
		}
	}
	gap := gapDates(bookings, unit.GapDays, unit.MinStay())

	window, _ := daterange.Inclusive(start, end)
	for _, d := range window.Days() {
		day := CalendarDay{Date: d}
		if unit.ExistsOn(d) {
			price := cal.resolver.Price(d)
			day.Price = &price
			day.IsCustomPrice = cal.resolver.Match(d) != nil && price != unit.BasePrice
		}
		markBlocked(&day, bookings, closures)
		for _, r := range restrictions {
			if r.ForbidsCheckIn(d) {
				day.CheckinDisabled = true
			}
			if r.ForbidsCheckOut(d) {
				day.CheckoutDisabled = true
			}
		}
		if _, ok := gap[d]; ok && !day.IsBlocked {
			day.GapBlocked = true
		}
		cal.index[d] = len(cal.Days)
		cal.Days = append(cal.Days, day)
	}
	return cal
}

// markBlocked applies block precedence: bookings, then external closures, then manual closures.
func markBlocked(day *CalendarDay, bookings []*booking.Booking, closures []*rules.ClosureRule) {
	for _, c := range closures {
		if c.External && c.Blocks(day.Date) {
			day.External = true
			break
		}
	}
	for _, b := range bookings {
		if !b.Blocks(day.Date) {
			continue
		}
		reason := b.GuestName
		if reason == "" {
			reason = ReasonReserved
		}
		day.IsBlocked = true
		day.Source = SourceBooking
		day.BlockReason = &reason
		day.Reference = string(b.ID)
		return
	}
	var manual *rules.ClosureRule
	for _, c := range closures {
		if !c.Blocks(day.Date) {
			continue
		}
		if c.External {
			label := string(ExtractProvider(c.Reason))
			day.IsBlocked = true
			day.Source = SourceExternal
			day.Provider = Provider(label)
			day.BlockReason = &label
			day.Reference = string(c.ID)
			return
		}
		if manual == nil {
			manual = c
		}
	}
	if manual != nil {
		reason := manual.Reason
		day.IsBlocked = true
		day.Source = SourceClosure
		day.BlockReason = &reason
		day.Reference = string(manual.ID)
	}
}

// gapDates returns the free dates on which a check-in would break the gap
// requirement: gap days from each check-out, and gap+minStay-1 days before each check-in.
func gapDates(bookings []*booking.Booking, gap, minStay int) map[daterange.Date]struct{} {
	out := map[daterange.Date]struct{}{}
	if gap <= 0 {
		return out
	}
	for _, b := range bookings {
		for i := 0; i < gap; i++ {
			out[b.Stay.End.AddDays(i)] = struct{}{}
		}
		before := gap + minStay - 1
		for i := 1; i <= before; i++ {
			out[b.Stay.Start.AddDays(-i)] = struct{}{}
		}
	}
	return out
}

// Day returns the state of d; ok is false outside the built window.
func (c *Calendar) Day(d daterange.Date) (CalendarDay, bool) {
	if c == nil {
		return CalendarDay{}, false
	}
	i, ok := c.index[d]
	if !ok {
		return CalendarDay{}, false
	}
	return c.Days[i], true
}

// Map exposes the calendar keyed by date.
func (c *Calendar) Map() map[daterange.Date]CalendarDay {
	out := make(map[daterange.Date]CalendarDay, len(c.Days))
	for _, d := range c.Days {
		out[d.Date] = d
	}
	return out
}

// NextBookingAfter returns the earliest active check-in strictly after d.
func (c *Calendar) NextBookingAfter(d daterange.Date) (daterange.Date, bool) {
	if c == nil {
		return daterange.Date{}, false
	}
	i := sort.Search(len(c.nextCheckIn), func(i int) bool { return c.nextCheckIn[i].After(d) })
	if i == len(c.nextCheckIn) {
		return daterange.Date{}, false
	}
	return c.nextCheckIn[i], true
}

// MinStayFor returns the minimum stay for stay, honouring price-rule overrides
// when the calendar was built from rules.
func (c *Calendar) MinStayFor(stay daterange.Range) int {
	if c == nil {
		return 1
	}
	if c.resolver != nil {
		return c.resolver.MinStay(stay)
	}
	if c.MinStay < 1 {
		return 1
	}
	return c.MinStay
}

// BlockedRanges collapses blocked days into consolidated half-open ranges.
func (c *Calendar) BlockedRanges() []daterange.Range {
	var ranges []daterange.Range
	for _, d := range c.Days {
		if d.IsBlocked {
			ranges = append(ranges, daterange.Range{Start: d.Date, End: d.Date.AddDays(1)})
		}
	}
	return daterange.Consolidate(ranges)
}

// CheckIns lists the check-in dates of the blocking bookings, ascending.
func (c *Calendar) CheckIns() []daterange.Date {
	if c == nil {
		return nil
	}
	return append([]daterange.Date(nil), c.nextCheckIn...)
}

// FreeThrough reports whether every night in [from, to) inside the window is unblocked.
func (c *Calendar) FreeThrough(from, to daterange.Date) bool {
	for d := from; d.Before(to); d = d.AddDays(1) {
		if day, ok := c.Day(d); ok && day.IsBlocked {
			return false
		}
	}
	return true
}

// FromDays rebuilds a calendar from days received over the wire. Next-booking
// lookups use the supplied check-in dates.
func FromDays(unit units.UnitID, days []CalendarDay, minStay, gap int, checkIns []daterange.Date) *Calendar {
	cal := &Calendar{UnitID: unit, MinStay: minStay, GapDays: gap, index: map[daterange.Date]int{}}
	sorted := append([]CalendarDay(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	for _, d := range sorted {
		if _, dup := cal.index[d.Date]; dup {
			continue
		}
		cal.index[d.Date] = len(cal.Days)
		cal.Days = append(cal.Days, d)
	}
	if len(cal.Days) > 0 {
		cal.Start = cal.Days[0].Date
		cal.End = cal.Days[len(cal.Days)-1].Date
	}
	cal.nextCheckIn = append(cal.nextCheckIn, checkIns...)
	sort.Slice(cal.nextCheckIn, func(i, j int) bool { return cal.nextCheckIn[i].Before(cal.nextCheckIn[j]) })
	return cal
}
