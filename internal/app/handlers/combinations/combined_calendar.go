package combinations

import (
	"context"
	"errors"

	handlersupport "rentcal/internal/app/handlers/support"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/uow"
	"rentcal/internal/domain/overview"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

const combinedCalendarKey = "overview.combined"

// ErrNoActiveGroups is returned when no active group has an active unit.
var ErrNoActiveGroups = errors.New("combinations: no active unit groups")

type CombinedCalendarQuery struct {
	Start daterange.Date `json:"start" validate:"required"`
	End   daterange.Date `json:"end" validate:"required"`
}

func (q CombinedCalendarQuery) Key() string { return combinedCalendarKey }

type CombinedCalendarHandler struct {
	UoWFactory  uow.UoWFactory
	MaxDays     int
	Parallelism int
}

func (h *CombinedCalendarHandler) Handle(ctx context.Context, q CombinedCalendarQuery) (*overview.Combined, error) {
	window, err := handlersupport.Window(q.Start, q.End, h.MaxDays)
	if err != nil {
		return nil, err
	}
	unit, execCtx, cleanup, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	groups, err := unit.Groups().List(execCtx)
	if err != nil {
		return nil, err
	}
	active := make([]*units.Group, 0, len(groups))
	for _, g := range groups {
		if g != nil && g.Active {
			active = append(active, g)
		}
	}
	members, err := handlersupport.UnitsByID(execCtx, unit, memberIDs(active))
	if err != nil {
		return nil, err
	}
	live := members[:0]
	for _, u := range members {
		if u.IsActive() {
			live = append(live, u)
		}
	}
	if len(live) == 0 {
		return nil, ErrNoActiveGroups
	}
	data, err := handlersupport.LoadMany(execCtx, unit, live, &window, h.Parallelism)
	if err != nil {
		return nil, err
	}
	return overview.BuildCombined(q.Start, q.End, active, data), nil
}

var _ queries.Handler[CombinedCalendarQuery, *overview.Combined] = (*CombinedCalendarHandler)(nil)
