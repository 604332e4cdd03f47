package selection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

func date(s string) daterange.Date { return daterange.MustParse(s) }

var fixedNow = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }

type recorder struct {
	mu       sync.Mutex
	ranges   []*Range
	messages []Message
}

func (r *recorder) onRange(rg *Range) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranges = append(r.ranges, rg)
}

func (r *recorder) onMessage(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

func (r *recorder) snapshot() ([]*Range, []Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Range(nil), r.ranges...), append([]Message(nil), r.messages...)
}

func buildCalendar(t *testing.T, minStay int, in availability.Inputs) *availability.Calendar {
	t.Helper()
	u, err := units.NewUnit(units.CreateUnitParams{
		ID: "unit-a", Title: "A", Status: units.StatusActive,
		BasePrice: money.FromUnits(100), MaxGuests: 4, MinStayNights: minStay,
	})
	require.NoError(t, err)
	for _, b := range in.Bookings {
		b.UnitID = u.ID
	}
	for _, r := range in.CheckInOut {
		r.UnitID = u.ID
	}
	return availability.BuildCalendar(u, date("2025-06-01"), date("2025-08-31"), in)
}

func newController(cal *availability.Calendar, mode Mode, v RangeValidator, rec *recorder) *Controller {
	return NewController(cal, Options{
		Mode:            mode,
		Validator:       v,
		OnRangeSelected: rec.onRange,
		OnMessage:       rec.onMessage,
		Now:             fixedNow,
		Location:        time.UTC,
		ClearDelay:      20 * time.Millisecond,
	})
}

func click(t *testing.T, c *Controller, s string) error {
	t.Helper()
	return c.SelectDate(context.Background(), date(s), Modifiers{})
}

func TestMinimumStayIsEnforced(t *testing.T) {
	rec := &recorder{}
	c := newController(buildCalendar(t, 3, availability.Inputs{}), ModeSingle, nil, rec)

	require.NoError(t, click(t, c, "2025-07-01"))
	err := click(t, c, "2025-07-02")
	assert.ErrorIs(t, err, ErrMinStay)

	snap := c.Snapshot()
	assert.Equal(t, AwaitingCheckout, c.State())
	assert.Equal(t, date("2025-07-01"), snap.CheckIn)
	assert.True(t, snap.CheckOut.IsZero())

	_, msgs := rec.snapshot()
	require.NotEmpty(t, msgs)
	assert.Equal(t, LevelWarning, msgs[len(msgs)-1].Level)
	assert.Contains(t, msgs[len(msgs)-1].Text, "3 nights")
}

func TestMinimumStayReportedBeforeCheckOutRestriction(t *testing.T) {
	noOut := date("2025-07-02")
	rec := &recorder{}
	c := newController(buildCalendar(t, 3, availability.Inputs{CheckInOut: []*rules.CheckInOutRule{
		{ID: "out", Type: rules.NoCheckOut, Recurrence: rules.SpecificDate, SpecificDate: &noOut},
	}}), ModeSingle, nil, rec)

	require.NoError(t, click(t, c, "2025-07-01"))
	assert.ErrorIs(t, click(t, c, "2025-07-02"), ErrMinStay)
	assert.Equal(t, AwaitingCheckout, c.State())

	_, msgs := rec.snapshot()
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-1].Text, "3 nights")
}

func TestEarlierClickRestartsSelection(t *testing.T) {
	rec := &recorder{}
	c := newController(buildCalendar(t, 1, availability.Inputs{}), ModeSingle, nil, rec)

	require.NoError(t, click(t, c, "2025-07-10"))
	require.NoError(t, click(t, c, "2025-07-05"))

	snap := c.Snapshot()
	assert.Equal(t, AwaitingCheckout, snap.State())
	assert.Equal(t, date("2025-07-05"), snap.CheckIn)
	assert.True(t, snap.CheckOut.IsZero())
}

func TestPastDatesAreIgnored(t *testing.T) {
	rec := &recorder{}
	c := newController(buildCalendar(t, 1, availability.Inputs{}), ModeSingle, nil, rec)

	assert.ErrorIs(t, click(t, c, "2025-06-10"), ErrPastDate)
	assert.Equal(t, Idle, c.State())
	ranges, msgs := rec.snapshot()
	assert.Empty(t, ranges)
	assert.Empty(t, msgs)
}

func TestCompleteSelectionWithoutValidator(t *testing.T) {
	rec := &recorder{}
	c := newController(buildCalendar(t, 2, availability.Inputs{}), ModeSingle, nil, rec)

	require.NoError(t, click(t, c, "2025-07-01"))
	require.NoError(t, click(t, c, "2025-07-04"))
	assert.Equal(t, Complete, c.State())

	ranges, _ := rec.snapshot()
	require.Len(t, ranges, 1)
	assert.Equal(t, &Range{CheckIn: date("2025-07-01"), CheckOut: date("2025-07-04"), Nights: 3}, ranges[0])

	require.NoError(t, click(t, c, "2025-07-20"))
	snap := c.Snapshot()
	assert.Equal(t, date("2025-07-20"), snap.CheckIn)
	assert.Equal(t, AwaitingCheckout, snap.State())
	ranges, _ = rec.snapshot()
	require.Len(t, ranges, 2)
	assert.Nil(t, ranges[1], "restarting from a complete selection resets dependents")
}

func TestValidatedSelectionFiresCallback(t *testing.T) {
	rec := &recorder{}
	var got daterange.Range
	v := RangeValidatorFunc(func(ctx context.Context, stay daterange.Range) error {
		got = stay
		return nil
	})
	c := newController(buildCalendar(t, 1, availability.Inputs{}), ModeSingle, v, rec)

	require.NoError(t, click(t, c, "2025-07-01"))
	require.NoError(t, click(t, c, "2025-07-03"))

	require.Eventually(t, func() bool {
		ranges, _ := rec.snapshot()
		return len(ranges) == 1
	}, time.Second, 5*time.Millisecond)
	ranges, _ := rec.snapshot()
	assert.Equal(t, 2, ranges[0].Nights)
	assert.Equal(t, date("2025-07-01"), got.Start)
}

func TestNegativeValidationClearsSelection(t *testing.T) {
	rec := &recorder{}
	v := RangeValidatorFunc(func(ctx context.Context, stay daterange.Range) error {
		return &availability.ConflictError{Kind: availability.ConflictBooking, Message: "dates overlap an existing booking"}
	})
	c := newController(buildCalendar(t, 1, availability.Inputs{}), ModeSingle, v, rec)

	require.NoError(t, click(t, c, "2025-07-01"))
	require.NoError(t, click(t, c, "2025-07-03"))
	assert.Equal(t, Complete, c.State(), "selection stays provisional until the check returns")

	require.Eventually(t, func() bool { return c.State() == Idle }, time.Second, 5*time.Millisecond)

	ranges, msgs := rec.snapshot()
	require.Len(t, ranges, 1)
	assert.Nil(t, ranges[0], "only the reset is reported")
	var errMsg *Message
	for i := range msgs {
		if msgs[i].Level == LevelError {
			errMsg = &msgs[i]
		}
	}
	require.NotNil(t, errMsg)
	assert.Contains(t, errMsg.Text, "existing booking")
}

func TestSupersededValidationIsDiscarded(t *testing.T) {
	rec := &recorder{}
	started := make(chan struct{}, 1)
	cancelled := make(chan struct{}, 1)
	v := RangeValidatorFunc(func(ctx context.Context, stay daterange.Range) error {
		started <- struct{}{}
		<-ctx.Done()
		cancelled <- struct{}{}
		return nil
	})
	c := newController(buildCalendar(t, 1, availability.Inputs{}), ModeSingle, v, rec)

	require.NoError(t, click(t, c, "2025-07-01"))
	require.NoError(t, click(t, c, "2025-07-03"))
	<-started
	require.NoError(t, click(t, c, "2025-07-10"))

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("pending validation was not cancelled")
	}
	time.Sleep(20 * time.Millisecond)
	ranges, _ := rec.snapshot()
	for _, r := range ranges {
		assert.Nil(t, r)
	}
	assert.Equal(t, date("2025-07-10"), c.Snapshot().CheckIn)
}

func TestClearReportsNil(t *testing.T) {
	rec := &recorder{}
	c := newController(buildCalendar(t, 1, availability.Inputs{}), ModeSingle, nil, rec)
	require.NoError(t, click(t, c, "2025-07-01"))

	c.Clear()

	assert.Equal(t, Idle, c.State())
	ranges, _ := rec.snapshot()
	require.Len(t, ranges, 1)
	assert.Nil(t, ranges[0])
}

func TestSingleModeRestrictions(t *testing.T) {
	noOut := date("2025-07-06")
	noIn := date("2025-07-02")
	in := availability.Inputs{
		Bookings: []*booking.Booking{{ID: "b1", Stay: daterange.Range{Start: date("2025-07-10"), End: date("2025-07-12")}, Status: booking.StatusConfirmed, Guests: 2}},
		CheckInOut: []*rules.CheckInOutRule{
			{ID: "out", Type: rules.NoCheckOut, Recurrence: rules.SpecificDate, SpecificDate: &noOut},
			{ID: "in", Type: rules.NoCheckIn, Recurrence: rules.SpecificDate, SpecificDate: &noIn},
		},
	}
	cal := buildCalendar(t, 1, in)

	t.Run("check-in rules", func(t *testing.T) {
		c := newController(cal, ModeSingle, nil, &recorder{})
		assert.ErrorIs(t, click(t, c, "2025-07-02"), ErrUnselectable)
		assert.ErrorIs(t, click(t, c, "2025-07-10"), ErrUnselectable, "blocked day")
		assert.Equal(t, Idle, c.State())
	})
	t.Run("check-out rules", func(t *testing.T) {
		c := newController(cal, ModeSingle, nil, &recorder{})
		require.NoError(t, click(t, c, "2025-07-04"))
		assert.ErrorIs(t, click(t, c, "2025-07-06"), ErrUnselectable)
		assert.ErrorIs(t, click(t, c, "2025-07-11"), ErrUnselectable, "after next booking")
		require.NoError(t, click(t, c, "2025-07-10"), "check-out on the next check-in day")
		assert.Equal(t, Complete, c.State())
	})
	t.Run("combined mode bypasses per-date rules", func(t *testing.T) {
		c := newController(cal, ModeCombined, nil, &recorder{})
		require.NoError(t, click(t, c, "2025-07-02"))
		require.NoError(t, click(t, c, "2025-07-11"))
		assert.Equal(t, Complete, c.State())
	})
}

func TestHoverPreviewBothDirections(t *testing.T) {
	c := newController(buildCalendar(t, 1, availability.Inputs{}), ModeSingle, nil, &recorder{})
	window := daterange.Range{Start: date("2025-07-01"), End: date("2025-07-15")}

	c.Hover(date("2025-07-05"))
	for _, st := range c.DayStates(window) {
		assert.False(t, st.InHoverRange, "no hover before a check-in")
	}

	require.NoError(t, click(t, c, "2025-07-08"))
	c.Hover(date("2025-07-10"))
	hovered := map[string]bool{}
	for _, st := range c.DayStates(window) {
		if st.InHoverRange {
			hovered[st.Date.String()] = true
		}
	}
	assert.Equal(t, map[string]bool{"2025-07-08": true, "2025-07-09": true, "2025-07-10": true}, hovered)

	c.Hover(date("2025-07-06"))
	hovered = map[string]bool{}
	for _, st := range c.DayStates(window) {
		if st.InHoverRange {
			hovered[st.Date.String()] = true
		}
	}
	assert.Equal(t, map[string]bool{"2025-07-06": true, "2025-07-07": true, "2025-07-08": true}, hovered)
	assert.Equal(t, AwaitingCheckout, c.State(), "hover never mutates the selection")

	c.HoverOut()
	assert.True(t, c.Snapshot().Hover.IsZero())
}

func TestBulkSelection(t *testing.T) {
	c := newController(buildCalendar(t, 1, availability.Inputs{}), ModeBulk, nil, &recorder{})
	ctx := context.Background()

	require.NoError(t, c.SelectDate(ctx, date("2025-07-03"), Modifiers{}))
	require.NoError(t, c.SelectDate(ctx, date("2025-07-07"), Modifiers{Shift: true}))
	assert.Len(t, c.Snapshot().Bulk, 5)

	require.NoError(t, c.SelectDate(ctx, date("2025-07-05"), Modifiers{}))
	assert.Len(t, c.Snapshot().Bulk, 4)

	require.NoError(t, c.SelectDate(ctx, date("2025-07-20"), Modifiers{}))
	assert.ErrorIs(t, c.SelectDate(ctx, date("2025-06-01"), Modifiers{}), ErrPastDate)

	assert.Equal(t, []daterange.Range{
		{Start: date("2025-07-03"), End: date("2025-07-05")},
		{Start: date("2025-07-06"), End: date("2025-07-08")},
		{Start: date("2025-07-20"), End: date("2025-07-21")},
	}, c.BulkRanges())
	assert.Equal(t, AwaitingCheckout, c.State())

	c.Navigate(nil)
	assert.Empty(t, c.Snapshot().Bulk)
	assert.Equal(t, Idle, c.State())
}

func TestComputeDayStateWithoutData(t *testing.T) {
	st := ComputeDayState(date("2025-07-01"), date("2025-06-15"), nil, SelectionState{}, ModeSingle)
	assert.True(t, st.Selectable)
	assert.Nil(t, st.Price)
	assert.False(t, st.ShowPrice)

	past := ComputeDayState(date("2025-06-01"), date("2025-06-15"), nil, SelectionState{}, ModeSingle)
	assert.False(t, past.Selectable)
	assert.Equal(t, TipPast, past.Tooltip)
}
