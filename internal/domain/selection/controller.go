package selection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
)

var (
	ErrPastDate     = errors.New("selection: date is in the past")
	ErrUnselectable = errors.New("selection: date cannot be selected")
	ErrMinStay      = errors.New("selection: stay is shorter than the minimum")
)

const DefaultClearDelay = 3 * time.Second

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is a transient notice for the user.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

type Modifiers struct {
	Shift bool
}

// RangeValidator re-checks a provisional stay with the server. A nil error means
// the stay is available.
type RangeValidator interface {
	ValidateRange(ctx context.Context, stay daterange.Range) error
}

type RangeValidatorFunc func(ctx context.Context, stay daterange.Range) error

func (f RangeValidatorFunc) ValidateRange(ctx context.Context, stay daterange.Range) error {
	return f(ctx, stay)
}

type Options struct {
	Mode      Mode
	Validator RangeValidator
	// OnRangeSelected receives a validated range, or nil when the selection is cleared.
	OnRangeSelected func(*Range)
	OnMessage       func(Message)
	Now             func() time.Time
	Location        *time.Location
	ClearDelay      time.Duration
	// ValidationTimeout bounds one re-validation call; zero means no timeout.
	ValidationTimeout time.Duration
}

// Controller owns the selection of one calendar instance. Methods are safe for
// concurrent use; callbacks run outside the internal lock.
type Controller struct {
	mu     sync.Mutex
	opts   Options
	cal    *availability.Calendar
	sel    SelectionState
	anchor daterange.Date
	seq    uint64
	cancel context.CancelFunc
	timer  *time.Timer
}

func NewController(cal *availability.Calendar, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.ClearDelay <= 0 {
		opts.ClearDelay = DefaultClearDelay
	}
	return &Controller{opts: opts, cal: cal}
}

type notifications []func()

func (n *notifications) rangeSelected(cb func(*Range), r *Range) {
	if cb != nil {
		*n = append(*n, func() { cb(r) })
	}
}

func (n *notifications) message(cb func(Message), level Level, text string) {
	if cb != nil && text != "" {
		*n = append(*n, func() { cb(Message{Level: level, Text: text}) })
	}
}

func (n notifications) run() {
	for _, f := range n {
		f()
	}
}

func (c *Controller) checkMinStayLocked(d daterange.Date, out *notifications) error {
	stay := daterange.Range{Start: c.sel.CheckIn, End: d}
	if minStay := c.cal.MinStayFor(stay); stay.Nights() < minStay {
		out.message(c.opts.OnMessage, LevelWarning, "Minimum stay: "+nightsLabel(minStay))
		return fmt.Errorf("%w: %s", ErrMinStay, nightsLabel(minStay))
	}
	return nil
}

// SelectDate handles a click on d. Rejected clicks leave the state untouched
// and return an error wrapping ErrPastDate, ErrUnselectable or ErrMinStay.
func (c *Controller) SelectDate(ctx context.Context, d daterange.Date, mods Modifiers) error {
	var out notifications
	c.mu.Lock()
	err := c.selectLocked(ctx, d, mods, &out)
	c.mu.Unlock()
	out.run()
	return err
}

func (c *Controller) selectLocked(ctx context.Context, d daterange.Date, mods Modifiers, out *notifications) error {
	today := c.today()
	if c.opts.Mode == ModeBulk {
		return c.toggleLocked(d, mods.Shift, today)
	}
	st := ComputeDayState(d, today, c.cal, c.sel, c.opts.Mode)
	awaitingOut := !st.IsPast && c.sel.State() == AwaitingCheckout && d.After(c.sel.CheckIn)
	if awaitingOut {
		if err := c.checkMinStayLocked(d, out); err != nil {
			return err
		}
	}
	if !st.Selectable {
		if st.IsPast {
			return ErrPastDate
		}
		out.message(c.opts.OnMessage, LevelWarning, st.Tooltip)
		return fmt.Errorf("%w: %s", ErrUnselectable, st.Tooltip)
	}
	switch c.sel.State() {
	case Complete:
		c.resetLocked()
		out.rangeSelected(c.opts.OnRangeSelected, nil)
		c.beginLocked(d, out)
		return nil
	case Idle:
		c.beginLocked(d, out)
		return nil
	}
	if !d.After(c.sel.CheckIn) {
		c.beginLocked(d, out)
		return nil
	}
	stay := daterange.Range{Start: c.sel.CheckIn, End: d}
	c.sel.CheckOut = d
	c.sel.IsSelectingCheckOut = false
	c.sel.Hover = daterange.Date{}
	c.seq++
	r := &Range{CheckIn: stay.Start, CheckOut: stay.End, Nights: stay.Nights()}
	if c.opts.Validator == nil || c.opts.Mode == ModeCombined {
		out.rangeSelected(c.opts.OnRangeSelected, r)
		return nil
	}
	var (
		vctx   context.Context
		cancel context.CancelFunc
	)
	if c.opts.ValidationTimeout > 0 {
		vctx, cancel = context.WithTimeout(ctx, c.opts.ValidationTimeout)
	} else {
		vctx, cancel = context.WithCancel(ctx)
	}
	c.cancel = cancel
	go c.validate(vctx, cancel, c.seq, stay, r)
	return nil
}

func (c *Controller) beginLocked(d daterange.Date, out *notifications) {
	c.cancelPendingLocked()
	c.sel = SelectionState{CheckIn: d, IsSelectingCheckOut: true}
	if c.opts.Mode != ModeSingle {
		return
	}
	if next, ok := c.cal.NextBookingAfter(d); ok {
		out.message(c.opts.OnMessage, LevelInfo, "Next booking starts on "+next.String())
	}
}

func (c *Controller) validate(ctx context.Context, cancel context.CancelFunc, seq uint64, stay daterange.Range, r *Range) {
	defer cancel()
	err := c.opts.Validator.ValidateRange(ctx, stay)

	var out notifications
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.cancel = nil
	switch {
	case err == nil:
		out.rangeSelected(c.opts.OnRangeSelected, r)
	case errors.Is(err, context.Canceled):
	default:
		text := "Availability check failed"
		if ce, ok := availability.AsConflict(err); ok {
			text = "Not available: " + ce.Message
		}
		out.message(c.opts.OnMessage, LevelError, text)
		c.timer = time.AfterFunc(c.opts.ClearDelay, func() { c.expire(seq) })
	}
	c.mu.Unlock()
	out.run()
}

func (c *Controller) expire(seq uint64) {
	var out notifications
	c.mu.Lock()
	if seq == c.seq && c.sel.State() == Complete {
		c.timer = nil
		c.resetLocked()
		out.rangeSelected(c.opts.OnRangeSelected, nil)
	}
	c.mu.Unlock()
	out.run()
}

// Clear drops the selection and reports nil to the completion callback.
func (c *Controller) Clear() {
	var out notifications
	c.mu.Lock()
	c.resetLocked()
	out.rangeSelected(c.opts.OnRangeSelected, nil)
	c.mu.Unlock()
	out.run()
}

// Navigate installs the calendar of a new window and resets the selection.
func (c *Controller) Navigate(cal *availability.Calendar) {
	var out notifications
	c.mu.Lock()
	hadSelection := c.sel.State() != Idle || len(c.sel.Bulk) > 0
	c.resetLocked()
	c.cal = cal
	if hadSelection {
		out.rangeSelected(c.opts.OnRangeSelected, nil)
	}
	c.mu.Unlock()
	out.run()
}

// SetCalendar refreshes availability data for the current window without
// touching the selection.
func (c *Controller) SetCalendar(cal *availability.Calendar) {
	c.mu.Lock()
	c.cal = cal
	c.mu.Unlock()
}

// Hover previews the range between check-in and d while a check-out is pending.
func (c *Controller) Hover(d daterange.Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sel.State() != AwaitingCheckout {
		return
	}
	c.sel.Hover = d
}

func (c *Controller) HoverOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.Hover = daterange.Date{}
}

func (c *Controller) Snapshot() SelectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sel
	s.Bulk = append([]daterange.Date(nil), c.sel.Bulk...)
	return s
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opts.Mode == ModeBulk {
		if len(c.sel.Bulk) == 0 {
			return Idle
		}
		return AwaitingCheckout
	}
	return c.sel.State()
}

// DayStates computes the cell state of every date in window.
func (c *Controller) DayStates(window daterange.Range) []DayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	today := c.today()
	days := window.Days()
	out := make([]DayState, 0, len(days))
	for _, d := range days {
		out = append(out, ComputeDayState(d, today, c.cal, c.sel, c.opts.Mode))
	}
	return out
}

// Close cancels any pending re-validation.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPendingLocked()
}

func (c *Controller) resetLocked() {
	c.cancelPendingLocked()
	c.sel = SelectionState{}
	c.anchor = daterange.Date{}
}

func (c *Controller) cancelPendingLocked() {
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) today() daterange.Date {
	return daterange.Today(c.opts.Now(), c.opts.Location)
}

// toggleLocked implements bulk selection: a click toggles one date, a shift
// click adds every date between the anchor and d inclusive.
func (c *Controller) toggleLocked(d daterange.Date, shift bool, today daterange.Date) error {
	if d.Before(today) {
		return ErrPastDate
	}
	switch {
	case shift && !c.anchor.IsZero():
		lo, hi := c.anchor, d
		if hi.Before(lo) {
			lo, hi = hi, lo
		}
		for x := lo; !x.After(hi); x = x.AddDays(1) {
			if !x.Before(today) && !containsDate(c.sel.Bulk, x) {
				c.sel.Bulk = append(c.sel.Bulk, x)
			}
		}
		c.anchor = d
	case containsDate(c.sel.Bulk, d):
		c.sel.Bulk = removeDate(c.sel.Bulk, d)
		c.anchor = daterange.Date{}
	default:
		c.sel.Bulk = append(c.sel.Bulk, d)
		c.anchor = d
	}
	sort.Slice(c.sel.Bulk, func(i, j int) bool { return c.sel.Bulk[i].Before(c.sel.Bulk[j]) })
	return nil
}

// BulkRanges returns the bulk selection as consolidated half-open ranges.
func (c *Controller) BulkRanges() []daterange.Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DatesToRanges(c.sel.Bulk)
}

// DatesToRanges groups dates into consolidated half-open ranges.
func DatesToRanges(dates []daterange.Date) []daterange.Range {
	ranges := make([]daterange.Range, 0, len(dates))
	for _, d := range dates {
		ranges = append(ranges, daterange.Range{Start: d, End: d.AddDays(1)})
	}
	return daterange.Consolidate(ranges)
}

func removeDate(list []daterange.Date, d daterange.Date) []daterange.Date {
	out := list[:0]
	for _, x := range list {
		if !x.Equal(d) {
			out = append(out, x)
		}
	}
	return out
}

func nightsLabel(n int) string {
	if n == 1 {
		return "1 night"
	}
	return fmt.Sprintf("%d nights", n)
}
