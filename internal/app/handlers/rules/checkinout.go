package rules

import (
	"context"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	handlersupport "rentcal/internal/app/handlers/support"
	domainrules "rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

const createCheckInOutKey = "rules.checkinout.create"

type CreateCheckInOutCommand struct {
	UnitID          string          `json:"unit_id" validate:"required"`
	RuleType        string          `json:"rule_type" validate:"required,oneof=no_checkin no_checkout"`
	Recurrence      string          `json:"recurrence_type" validate:"required,oneof=specific_date weekly"`
	SpecificDate    *daterange.Date `json:"specific_date"`
	DayOfWeek       *int            `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	IdempotencyKeyV string          `json:"-"`
}

func (c CreateCheckInOutCommand) Key() string { return createCheckInOutKey }

func (c CreateCheckInOutCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateCheckInOutCommand) ResultPrototype() any { return &dto.CheckInOutRule{} }

type CreateCheckInOutHandler struct {
	handlersupport.CommandDeps
}

func (h *CreateCheckInOutHandler) Handle(ctx context.Context, cmd CreateCheckInOutCommand) (*dto.CheckInOutRule, error) {
	unit, ctx, commit, cleanup, err := h.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	u, err := unit.Units().ByID(ctx, units.UnitID(cmd.UnitID))
	if err != nil {
		return nil, err
	}
	rule, err := domainrules.NewCheckInOutRule(domainrules.NewCheckInOutParams{
		ID:           domainrules.RuleID(h.ID()),
		UnitID:       u.ID,
		Type:         domainrules.RuleType(cmd.RuleType),
		Recurrence:   domainrules.Recurrence(cmd.Recurrence),
		SpecificDate: cmd.SpecificDate,
		DayOfWeek:    cmd.DayOfWeek,
		Now:          h.Clock.Time(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.CheckInOut().Save(ctx, rule); err != nil {
		return nil, err
	}
	if err := h.Record(ctx, rule); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	out := dto.MapCheckInOut(rule)
	return &out, nil
}

var _ commands.Handler[CreateCheckInOutCommand, *dto.CheckInOutRule] = (*CreateCheckInOutHandler)(nil)
