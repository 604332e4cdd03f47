package rules

import (
	"context"

	"rentcal/internal/app/commands"
	handlersupport "rentcal/internal/app/handlers/support"
	"rentcal/internal/app/uow"
	domainrules "rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/events"
	"rentcal/internal/domain/units"
)

const deleteRuleKey = "rules.delete"

type DeleteRuleCommand struct {
	UnitID string `json:"unit_id" validate:"required"`
	Kind   string `json:"kind" validate:"required,oneof=price closure checkinout"`
	RuleID string `json:"rule_id" validate:"required"`
}

func (c DeleteRuleCommand) Key() string { return deleteRuleKey }

type DeleteRuleResult struct {
	Deleted bool `json:"deleted"`
}

type DeleteRuleHandler struct {
	handlersupport.CommandDeps
}

// Handle reports rules.ErrNotFound when the rule belongs to another unit.
func (h *DeleteRuleHandler) Handle(ctx context.Context, cmd DeleteRuleCommand) (*DeleteRuleResult, error) {
	kind, ok := domainrules.ParseKind(cmd.Kind)
	if !ok {
		return nil, domainrules.ErrNotFound
	}
	unit, ctx, commit, cleanup, err := h.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	unitID := units.UnitID(cmd.UnitID)
	id := domainrules.RuleID(cmd.RuleID)
	if err := deleteOwned(ctx, unit, kind, unitID, id); err != nil {
		return nil, err
	}
	batch := &eventBatch{}
	batch.Record(domainrules.RuleDeletedEvent{RuleID: id, UnitID: unitID, Kind: kind, At: h.Clock.Time()})
	if err := h.Record(ctx, batch); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	return &DeleteRuleResult{Deleted: true}, nil
}

func deleteOwned(ctx context.Context, unit uow.UnitOfWork, kind domainrules.Kind, owner units.UnitID, id domainrules.RuleID) error {
	switch kind {
	case domainrules.KindPrice:
		r, err := unit.PriceRules().ByID(ctx, id)
		if err != nil {
			return err
		}
		if r.UnitID != owner {
			return domainrules.ErrNotFound
		}
		return unit.PriceRules().Delete(ctx, id)
	case domainrules.KindClosure:
		r, err := unit.Closures().ByID(ctx, id)
		if err != nil {
			return err
		}
		if r.UnitID != owner {
			return domainrules.ErrNotFound
		}
		return unit.Closures().Delete(ctx, id)
	default:
		r, err := unit.CheckInOut().ByID(ctx, id)
		if err != nil {
			return err
		}
		if r.UnitID != owner {
			return domainrules.ErrNotFound
		}
		return unit.CheckInOut().Delete(ctx, id)
	}
}

// eventBatch carries events that belong to no single loaded aggregate.
type eventBatch struct {
	events.EventRecorder
}

var _ commands.Handler[DeleteRuleCommand, *DeleteRuleResult] = (*DeleteRuleHandler)(nil)
