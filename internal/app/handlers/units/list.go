package units

import (
	"context"
	"sort"

	"rentcal/internal/app/dto"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/uow"
	domainunits "rentcal/internal/domain/units"
)

const (
	listUnitsKey  = "units.list"
	listGroupsKey = "groups.list"
)

type ListUnitsQuery struct {
	// Status filters by unit status; empty keeps all.
	Status string `json:"status" validate:"omitempty,oneof=draft active inactive"`
}

func (q ListUnitsQuery) Key() string { return listUnitsKey }

type ListUnitsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListUnitsHandler) Handle(ctx context.Context, q ListUnitsQuery) ([]dto.Unit, error) {
	unit, execCtx, cleanup, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	list, err := unit.Units().List(execCtx)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	out := make([]dto.Unit, 0, len(list))
	for _, u := range list {
		if q.Status != "" && string(u.Status) != q.Status {
			continue
		}
		out = append(out, dto.MapUnit(u))
	}
	return out, nil
}

type ListGroupsQuery struct {
	ActiveOnly bool `json:"active_only"`
}

func (q ListGroupsQuery) Key() string { return listGroupsKey }

type ListGroupsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListGroupsHandler) Handle(ctx context.Context, q ListGroupsQuery) ([]dto.Group, error) {
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
	all, err := unit.Units().List(execCtx)
	if err != nil {
		return nil, err
	}
	byID := make(map[domainunits.UnitID]*domainunits.Unit, len(all))
	for _, u := range all {
		byID[u.ID] = u
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	out := make([]dto.Group, 0, len(groups))
	for _, g := range groups {
		if q.ActiveOnly && !g.Active {
			continue
		}
		out = append(out, dto.MapGroup(g, byID))
	}
	return out, nil
}

var (
	_ queries.Handler[ListUnitsQuery, []dto.Unit]   = (*ListUnitsHandler)(nil)
	_ queries.Handler[ListGroupsQuery, []dto.Group] = (*ListGroupsHandler)(nil)
)
