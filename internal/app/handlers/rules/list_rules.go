package rules

import (
	"context"

	"rentcal/internal/app/dto"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/uow"
	domainrules "rentcal/internal/domain/rules"
	"rentcal/internal/domain/units"
)

const listRulesKey = "rules.list"

type ListRulesQuery struct {
	UnitID string `json:"unit_id" validate:"required"`
	Kind   string `json:"kind" validate:"required,oneof=price closure checkinout"`
}

func (q ListRulesQuery) Key() string { return listRulesKey }

// RuleList holds the rules of the requested kind; the other slices stay nil.
type RuleList struct {
	PriceRules []dto.PriceRule
	Closures   []dto.ClosureRule
	CheckInOut []dto.CheckInOutRule
}

type ListRulesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRulesHandler) Handle(ctx context.Context, q ListRulesQuery) (RuleList, error) {
	unit, execCtx, cleanup, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return RuleList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	u, err := unit.Units().ByID(execCtx, units.UnitID(q.UnitID))
	if err != nil {
		return RuleList{}, err
	}
	kind, _ := domainrules.ParseKind(q.Kind)
	var out RuleList
	switch kind {
	case domainrules.KindPrice:
		list, err := unit.PriceRules().ListByUnit(execCtx, u.ID, nil)
		if err != nil {
			return RuleList{}, err
		}
		out.PriceRules = dto.MapPriceRules(list)
	case domainrules.KindClosure:
		list, err := unit.Closures().ListByUnit(execCtx, u.ID, nil)
		if err != nil {
			return RuleList{}, err
		}
		out.Closures = dto.MapClosures(list)
	case domainrules.KindCheckInOut:
		list, err := unit.CheckInOut().ListByUnit(execCtx, u.ID)
		if err != nil {
			return RuleList{}, err
		}
		out.CheckInOut = dto.MapCheckInOuts(list)
	default:
		return RuleList{}, domainrules.ErrNotFound
	}
	return out, nil
}

var _ queries.Handler[ListRulesQuery, RuleList] = (*ListRulesHandler)(nil)
