package overview

import (
	"context"

	handlersupport "rentcal/internal/app/handlers/support"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/uow"
	domainoverview "rentcal/internal/domain/overview"
	"rentcal/internal/domain/shared/daterange"
)

const globalKey = "overview.global"

type GlobalCalendarQuery struct {
	Start daterange.Date `json:"start" validate:"required"`
	End   daterange.Date `json:"end" validate:"required"`
	// ActiveOnly hides draft and inactive units.
	ActiveOnly bool `json:"active_only"`
}

func (q GlobalCalendarQuery) Key() string { return globalKey }

type GlobalCalendarHandler struct {
	UoWFactory  uow.UoWFactory
	MaxDays     int
	Parallelism int
}

func (h *GlobalCalendarHandler) Handle(ctx context.Context, q GlobalCalendarQuery) (*domainoverview.Global, error) {
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
	all, err := unit.Units().List(execCtx)
	if err != nil {
		return nil, err
	}
	list := all[:0]
	for _, u := range all {
		if u != nil && (!q.ActiveOnly || u.IsActive()) {
			list = append(list, u)
		}
	}
	loaded, err := handlersupport.LoadMany(execCtx, unit, list, &window, h.Parallelism)
	if err != nil {
		return nil, err
	}
	data := make([]domainoverview.UnitInputs, 0, len(loaded))
	for _, in := range loaded {
		data = append(data, in)
	}
	return domainoverview.BuildGlobal(q.Start, q.End, data), nil
}

var _ queries.Handler[GlobalCalendarQuery, *domainoverview.Global] = (*GlobalCalendarHandler)(nil)
