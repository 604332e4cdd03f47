package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rentcal/internal/client/calendarapi"
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/selection"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/infra/obs"
)

const usage = `usage: calendarctl [-api URL] <command> [flags]

commands:
  calendar  -unit ID [-month YYYY-MM] [-months N] [-prices]
  select    -unit ID -dates D1,D2[,...] [-month YYYY-MM] [-shift]
  search    -check-in D -check-out D -guests N [-group ID]
  units
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "calendarctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("calendarctl", flag.ContinueOnError)
	apiURL := global.String("api", getenv("RENTCAL_API", "http://localhost:8080/api/v1"), "calendar API base URL")
	verbose := global.Bool("v", false, "log API errors")
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}
	opts := []calendarapi.Option{}
	if *verbose {
		opts = append(opts, calendarapi.WithLogger(obs.NewLogger("dev", "debug")))
	}
	client := calendarapi.New(*apiURL, opts...)

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "calendar":
		return runCalendar(ctx, client, rest, out)
	case "select":
		return runSelect(ctx, client, rest, out)
	case "search":
		return runSearch(ctx, client, rest, out)
	case "units":
		return runUnits(ctx, client, out)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type windowFlags struct {
	unit   string
	month  string
	months int
}

func (w *windowFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&w.unit, "unit", "", "unit id")
	fs.StringVar(&w.month, "month", "", "first month shown, YYYY-MM (default: current month)")
	fs.IntVar(&w.months, "months", 2, "number of months shown")
}

func (w *windowFlags) start() (daterange.Date, error) {
	if w.month == "" {
		return daterange.Today(time.Now(), time.Local).FirstOfMonth(0), nil
	}
	return daterange.ParseDate(w.month + "-01")
}

func (w *windowFlags) load(ctx context.Context, client *calendarapi.Client) (*calendarapi.Loader, *availability.Calendar, error) {
	if w.unit == "" {
		return nil, nil, errors.New("-unit is required")
	}
	month, err := w.start()
	if err != nil {
		return nil, nil, fmt.Errorf("-month: %w", err)
	}
	loader := &calendarapi.Loader{Source: client, UnitID: w.unit, Months: w.months}
	cal, err := loader.Load(ctx, month)
	if err != nil {
		return nil, nil, err
	}
	return loader, cal, nil
}

func runCalendar(ctx context.Context, client *calendarapi.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("calendar", flag.ContinueOnError)
	var w windowFlags
	w.register(fs)
	prices := fs.Bool("prices", false, "show nightly prices")
	if err := fs.Parse(args); err != nil {
		return err
	}
	loader, cal, err := w.load(ctx, client)
	if err != nil {
		return err
	}
	ctrl := selection.NewController(cal, selection.Options{})
	defer ctrl.Close()
	_, window := loader.Current()
	printWindow(out, ctrl, window, *prices)
	return nil
}

func runSelect(ctx context.Context, client *calendarapi.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("select", flag.ContinueOnError)
	var w windowFlags
	w.register(fs)
	dates := fs.String("dates", "", "comma separated dates clicked in order")
	shift := fs.Bool("shift", false, "hold shift on every click")
	if err := fs.Parse(args); err != nil {
		return err
	}
	clicks, err := parseDates(*dates)
	if err != nil {
		return err
	}
	if len(clicks) == 0 {
		return errors.New("-dates is required")
	}
	loader, cal, err := w.load(ctx, client)
	if err != nil {
		return err
	}

	selected := make(chan *selection.Range, 1)
	failed := make(chan struct{}, 1)
	ctrl := selection.NewController(cal, selection.Options{
		Validator:         calendarapi.RangeValidator{Checker: client, UnitID: w.unit},
		ValidationTimeout: 10 * time.Second,
		OnRangeSelected: func(r *selection.Range) {
			if r == nil {
				return
			}
			select {
			case selected <- r:
			default:
			}
		},
		OnMessage: func(m selection.Message) {
			fmt.Fprintf(out, "%s: %s\n", m.Level, m.Text)
			if m.Level == selection.LevelError {
				select {
				case failed <- struct{}{}:
				default:
				}
			}
		},
	})
	defer ctrl.Close()

	for _, d := range clicks {
		if err := ctrl.SelectDate(ctx, d, selection.Modifiers{Shift: *shift}); err != nil {
			fmt.Fprintf(out, "click %s rejected: %v\n", d, err)
		}
	}
	if ctrl.State() == selection.Complete {
		select {
		case r := <-selected:
			fmt.Fprintf(out, "selected %s to %s (%d nights)\n", r.CheckIn, r.CheckOut, r.Nights)
		case <-failed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	_, window := loader.Current()
	printWindow(out, ctrl, window, false)
	return nil
}

func runSearch(ctx context.Context, client *calendarapi.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	group := fs.String("group", "", "unit group id (default: every active group)")
	checkIn := fs.String("check-in", "", "arrival date")
	checkOut := fs.String("check-out", "", "departure date")
	guests := fs.Int("guests", 1, "party size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in, err := daterange.ParseDate(*checkIn)
	if err != nil {
		return fmt.Errorf("-check-in: %w", err)
	}
	outDate, err := daterange.ParseDate(*checkOut)
	if err != nil {
		return fmt.Errorf("-check-out: %w", err)
	}
	res, err := client.SearchCombinations(ctx, calendarapi.SearchRequest{GroupID: *group, CheckIn: in, CheckOut: outDate, Guests: *guests})
	if err != nil {
		return err
	}
	if len(res.Combinations) == 0 {
		fmt.Fprintln(out, "no combination fits")
		return nil
	}
	for i, c := range res.Combinations {
		ids := make([]string, 0, len(c.Units))
		for _, a := range c.Units {
			ids = append(ids, fmt.Sprintf("%s(%d)", a.UnitID, a.Guests))
		}
		fmt.Fprintf(out, "%d. %s  %s  capacity %d  total %s\n", i+1, c.GroupName, strings.Join(ids, " + "), c.Capacity, c.Total)
	}
	return nil
}

func runUnits(ctx context.Context, client *calendarapi.Client, out io.Writer) error {
	list, err := client.Units(ctx)
	if err != nil {
		return err
	}
	for _, u := range list {
		fmt.Fprintf(out, "%-20s %-8s %3d guests  %s/night  min %d\n", u.ID, u.Status, u.MaxGuests, u.BasePrice, u.MinStayNights)
	}
	return nil
}

func printWindow(out io.Writer, ctrl *selection.Controller, window daterange.Range, prices bool) {
	states := statesByDate(ctrl.DayStates(window))
	for month := window.Start; month.Before(window.End); month = month.FirstOfMonth(1) {
		renderMonth(out, month, states, prices)
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, legend)
}

func parseDates(raw string) ([]daterange.Date, error) {
	var out []daterange.Date
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := daterange.ParseDate(part)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
