package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

func date(s string) daterange.Date { return daterange.MustParse(s) }

func stay(t *testing.T, from, to string) daterange.Range {
	t.Helper()
	r, err := daterange.New(date(from), date(to))
	require.NoError(t, err)
	return r
}

func newUnit(t *testing.T, mutate ...func(*units.CreateUnitParams)) *units.Unit {
	t.Helper()
	p := units.CreateUnitParams{
		ID:        "unit-a",
		Title:     "Unit A",
		Status:    units.StatusActive,
		BasePrice: money.FromUnits(100),
		MaxGuests: 4,
	}
	for _, m := range mutate {
		m(&p)
	}
	u, err := units.NewUnit(p)
	require.NoError(t, err)
	return u
}

func newBooking(t *testing.T, unit units.UnitID, id, from, to string, status booking.Status) *booking.Booking {
	t.Helper()
	return &booking.Booking{ID: booking.BookingID(id), UnitID: unit, Stay: stay(t, from, to), Guests: 2, Status: status}
}

func price(s string) *money.Money {
	m := money.Must(s)
	return &m
}

func TestBuildCalendarEndToEnd(t *testing.T) {
	u := newUnit(t)
	in := Inputs{
		PriceRules: []*rules.PriceRule{{ID: "r1", UnitID: u.ID, Start: date("2025-08-01"), End: date("2025-08-10"), Price: price("150")}},
		Bookings:   []*booking.Booking{newBooking(t, u.ID, "b1", "2025-08-03", "2025-08-05", booking.StatusConfirmed)},
	}
	cal := BuildCalendar(u, date("2025-08-01"), date("2025-08-10"), in)
	require.Len(t, cal.Days, 10)

	blocked := map[string]bool{"2025-08-03": true, "2025-08-04": true}
	for _, day := range cal.Days {
		require.NotNil(t, day.Price, day.Date.String())
		assert.Equal(t, money.FromUnits(150), *day.Price, day.Date.String())
		assert.Equal(t, blocked[day.Date.String()], day.IsBlocked, day.Date.String())
	}
	d, ok := cal.Day(date("2025-08-03"))
	require.True(t, ok)
	require.NotNil(t, d.BlockReason)
	assert.Equal(t, ReasonReserved, *d.BlockReason)
	assert.Equal(t, SourceBooking, d.Source)

	assert.Equal(t, []daterange.Range{stay(t, "2025-08-03", "2025-08-05")}, cal.BlockedRanges())
}

func TestBuildCalendarCancelledBookingsNeverBlock(t *testing.T) {
	u := newUnit(t)
	in := Inputs{Bookings: []*booking.Booking{newBooking(t, u.ID, "b1", "2025-06-01", "2025-06-05", booking.StatusCancelled)}}
	cal := BuildCalendar(u, date("2025-06-01"), date("2025-06-05"), in)
	for _, day := range cal.Days {
		assert.False(t, day.IsBlocked, day.Date.String())
	}
	_, ok := cal.NextBookingAfter(date("2025-05-01"))
	assert.False(t, ok)
}

func TestBuildCalendarIsIdempotent(t *testing.T) {
	u := newUnit(t, func(p *units.CreateUnitParams) { p.GapDays = 1 })
	dow := 5
	in := Inputs{
		PriceRules: []*rules.PriceRule{{ID: "r1", UnitID: u.ID, Start: date("2025-06-01"), End: date("2025-06-30"), Price: price("90")}},
		Bookings:   []*booking.Booking{newBooking(t, u.ID, "b1", "2025-06-10", "2025-06-12", booking.StatusPending)},
		Closures:   []*rules.ClosureRule{{ID: "c1", UnitID: u.ID, Start: date("2025-06-20"), End: date("2025-06-22"), Reason: "painting"}},
		CheckInOut: []*rules.CheckInOutRule{{ID: "w", UnitID: u.ID, Type: rules.NoCheckIn, Recurrence: rules.Weekly, DayOfWeek: &dow}},
	}
	first := BuildCalendar(u, date("2025-06-01"), date("2025-06-30"), in)
	second := BuildCalendar(u, date("2025-06-01"), date("2025-06-30"), in)
	assert.Equal(t, first.Days, second.Days)
}

func TestBuildCalendarBlockReasons(t *testing.T) {
	u := newUnit(t)
	in := Inputs{
		Bookings: []*booking.Booking{func() *booking.Booking {
			b := newBooking(t, u.ID, "b1", "2025-09-01", "2025-09-03", booking.StatusConfirmed)
			b.GuestName = "J. Smith"
			return b
		}()},
		Closures: []*rules.ClosureRule{
			{ID: "manual", UnitID: u.ID, Start: date("2025-09-02"), End: date("2025-09-06"), Reason: "maintenance"},
			{ID: "ext", UnitID: u.ID, Start: date("2025-09-05"), End: date("2025-09-08"), Reason: "[Main] Synced from Airbnb", External: true},
			{ID: "ext2", UnitID: u.ID, Start: date("2025-09-10"), End: date("2025-09-11"), Reason: "imported", External: true},
		},
	}
	cal := BuildCalendar(u, date("2025-09-01"), date("2025-09-10"), in)
	reason := func(s string) string {
		d, ok := cal.Day(date(s))
		require.True(t, ok)
		require.True(t, d.IsBlocked, s)
		require.NotNil(t, d.BlockReason)
		return *d.BlockReason
	}
	assert.Equal(t, "J. Smith", reason("2025-09-02"), "bookings take precedence")
	assert.Equal(t, "maintenance", reason("2025-09-03"))
	assert.Equal(t, "Airbnb", reason("2025-09-05"), "external closures take precedence over manual ones")
	assert.Equal(t, "Airbnb", reason("2025-09-07"))
	assert.Equal(t, "OTA", reason("2025-09-10"))

	d, _ := cal.Day(date("2025-09-08"))
	assert.False(t, d.IsBlocked)
	assert.Nil(t, d.BlockReason)
}

func TestBuildCalendarCheckInOutRules(t *testing.T) {
	u := newUnit(t)
	saturday := 5
	specific := date("2025-07-09")
	in := Inputs{CheckInOut: []*rules.CheckInOutRule{
		{ID: "sat", UnitID: u.ID, Type: rules.NoCheckIn, Recurrence: rules.Weekly, DayOfWeek: &saturday},
		{ID: "wed", UnitID: u.ID, Type: rules.NoCheckOut, Recurrence: rules.SpecificDate, SpecificDate: &specific},
		{ID: "bad", UnitID: u.ID, Type: rules.NoCheckOut, Recurrence: rules.Weekly},
	}}
	cal := BuildCalendar(u, date("2025-07-01"), date("2025-07-14"), in)
	for _, day := range cal.Days {
		assert.Equal(t, day.Date.String() == "2025-07-05" || day.Date.String() == "2025-07-12", day.CheckinDisabled, day.Date.String())
		assert.Equal(t, day.Date.String() == "2025-07-09", day.CheckoutDisabled, day.Date.String())
		assert.False(t, day.IsBlocked)
	}
}

func TestBuildCalendarGapDays(t *testing.T) {
	u := newUnit(t, func(p *units.CreateUnitParams) {
		p.GapDays = 2
		p.MinStayNights = 2
	})
	in := Inputs{Bookings: []*booking.Booking{newBooking(t, u.ID, "b1", "2025-10-10", "2025-10-12", booking.StatusConfirmed)}}
	cal := BuildCalendar(u, date("2025-10-01"), date("2025-10-20"), in)

	gap := map[string]bool{}
	for _, day := range cal.Days {
		if day.GapBlocked {
			gap[day.Date.String()] = true
		}
		assert.False(t, day.CheckinDisabled)
	}
	assert.Equal(t, map[string]bool{
		"2025-10-07": true, "2025-10-08": true, "2025-10-09": true,
		"2025-10-12": true, "2025-10-13": true,
	}, gap)
}

func TestBuildCalendarNoPriceBeforeUnitExisted(t *testing.T) {
	u := newUnit(t, func(p *units.CreateUnitParams) { p.AvailableFrom = date("2025-05-03") })
	cal := BuildCalendar(u, date("2025-05-01"), date("2025-05-04"), Inputs{})
	require.Len(t, cal.Days, 4)
	assert.Nil(t, cal.Days[0].Price)
	assert.Nil(t, cal.Days[1].Price)
	require.NotNil(t, cal.Days[2].Price)
	assert.Equal(t, money.FromUnits(100), *cal.Days[2].Price)
}

func TestBuildCalendarDegradesOnBadInput(t *testing.T) {
	u := newUnit(t)
	assert.Empty(t, BuildCalendar(u, date("2025-05-04"), date("2025-05-01"), Inputs{}).Days)
	assert.Empty(t, BuildCalendar(nil, date("2025-05-01"), date("2025-05-04"), Inputs{}).Days)

	in := Inputs{
		Closures: []*rules.ClosureRule{nil, {ID: "empty", UnitID: u.ID, Start: date("2025-05-02"), End: date("2025-05-02")}},
		Bookings: []*booking.Booking{nil},
	}
	cal := BuildCalendar(u, date("2025-05-01"), date("2025-05-04"), in)
	for _, d := range cal.Days {
		assert.False(t, d.IsBlocked)
	}
}

func TestNextBookingAfter(t *testing.T) {
	u := newUnit(t)
	in := Inputs{Bookings: []*booking.Booking{
		newBooking(t, u.ID, "later", "2025-07-20", "2025-07-22", booking.StatusConfirmed),
		newBooking(t, u.ID, "cancelled", "2025-07-12", "2025-07-14", booking.StatusCancelled),
		newBooking(t, u.ID, "next", "2025-07-15", "2025-07-17", booking.StatusPending),
	}}
	cal := BuildCalendar(u, date("2025-07-01"), date("2025-07-31"), in)
	next, ok := cal.NextBookingAfter(date("2025-07-10"))
	require.True(t, ok)
	assert.Equal(t, date("2025-07-15"), next)

	next, ok = cal.NextBookingAfter(date("2025-07-15"))
	require.True(t, ok)
	assert.Equal(t, date("2025-07-20"), next, "strictly after")
}

func TestExtractProvider(t *testing.T) {
	tests := map[string]Provider{
		"Synced from Airbnb":                   ProviderAirbnb,
		"[Main cal] Synced from Booking.com":   ProviderBookingCom,
		"synced from EXPEDIA (feed 2)":         ProviderExpedia,
		"Synced from Holidu":                   ProviderOther,
		"Reservation imported from airbnb.com": ProviderAirbnb,
		"blocked":                              ProviderOTA,
		"":                                     ProviderOTA,
	}
	for reason, want := range tests {
		assert.Equal(t, want, ExtractProvider(reason), reason)
	}
}
