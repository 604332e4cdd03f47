package support

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"rentcal/internal/app/uow"
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/overview"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

// DefaultParallelism bounds concurrent per-unit loads.
const DefaultParallelism = 8

// bookingPad widens the booking lookup so gap days and the next check-in
// beyond the window are still known.
func bookingPad(u *units.Unit) int {
	return u.GapDays + u.MinStay() + 1
}

// LoadInputs reads everything the availability engine needs for u over
// window. A nil window loads every record of the unit.
func LoadInputs(ctx context.Context, unit uow.UnitOfWork, u *units.Unit, window *daterange.Range) (availability.Inputs, error) {
	var in availability.Inputs
	var bookingWindow *daterange.Range
	if window != nil {
		pad := bookingPad(u)
		w := daterange.Range{Start: window.Start.AddDays(-pad), End: window.End.AddDays(pad)}
		bookingWindow = &w
	}
	var err error
	if in.PriceRules, err = unit.PriceRules().ListByUnit(ctx, u.ID, window); err != nil {
		return in, err
	}
	if in.Closures, err = unit.Closures().ListByUnit(ctx, u.ID, window); err != nil {
		return in, err
	}
	if in.CheckInOut, err = unit.CheckInOut().ListByUnit(ctx, u.ID); err != nil {
		return in, err
	}
	if in.Bookings, err = unit.Bookings().ListByUnit(ctx, u.ID, bookingWindow); err != nil {
		return in, err
	}
	return in, nil
}

// LoadMany loads the inputs of every unit concurrently. The unit of work must
// be read-only so its repositories tolerate concurrent readers.
func LoadMany(ctx context.Context, unit uow.UnitOfWork, list []*units.Unit, window *daterange.Range, parallelism int) (map[units.UnitID]overview.UnitInputs, error) {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	out := make(map[units.UnitID]overview.UnitInputs, len(list))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, u := range list {
		if u == nil {
			continue
		}
		g.Go(func() error {
			in, err := LoadInputs(gctx, unit, u, window)
			if err != nil {
				return err
			}
			mu.Lock()
			out[u.ID] = overview.UnitInputs{Unit: u, Inputs: in}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// UnitsByID resolves ids against the repository, skipping unknown ones.
func UnitsByID(ctx context.Context, unit uow.UnitOfWork, ids []units.UnitID) ([]*units.Unit, error) {
	out := make([]*units.Unit, 0, len(ids))
	for _, id := range ids {
		u, err := unit.Units().ByID(ctx, id)
		if errors.Is(err, units.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
