package rules

import (
	"context"
	"strings"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	handlersupport "rentcal/internal/app/handlers/support"
	"rentcal/internal/app/middleware"
	"rentcal/internal/app/outbox"
	"rentcal/internal/domain/overview"
	domainrules "rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

const (
	createPriceRuleKey = "rules.price.create"
	bulkPriceRulesKey  = "rules.price.bulk_create"
	importPricesKey    = "rules.price.import_csv"
)

type CreatePriceRuleCommand struct {
	UnitID          string         `json:"unit_id" validate:"required"`
	StartDate       daterange.Date `json:"start_date" validate:"required"`
	EndDate         daterange.Date `json:"end_date" validate:"required"`
	Price           money.Money    `json:"price" validate:"gte=0"`
	MinNights       int            `json:"min_nights" validate:"gte=0"`
	IdempotencyKeyV string         `json:"-"`
}

func (c CreatePriceRuleCommand) Key() string { return createPriceRuleKey }

func (c CreatePriceRuleCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreatePriceRuleCommand) ResultPrototype() any { return &dto.PriceRule{} }

func (c CreatePriceRuleCommand) Check() error {
	if c.EndDate.Before(c.StartDate) {
		return domainrules.ErrEndBeforeStart
	}
	return nil
}

type CreatePriceRuleHandler struct {
	handlersupport.CommandDeps
}

func (h *CreatePriceRuleHandler) Handle(ctx context.Context, cmd CreatePriceRuleCommand) (*dto.PriceRule, error) {
	unit, ctx, commit, cleanup, err := h.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	u, err := unit.Units().ByID(ctx, units.UnitID(cmd.UnitID))
	if err != nil {
		return nil, err
	}
	price := cmd.Price
	rule, err := domainrules.NewPriceRule(domainrules.NewPriceRuleParams{
		ID:        domainrules.RuleID(h.ID()),
		UnitID:    u.ID,
		Start:     cmd.StartDate,
		End:       cmd.EndDate,
		Price:     &price,
		MinNights: cmd.MinNights,
		Now:       h.Clock.Time(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.PriceRules().Save(ctx, rule); err != nil {
		return nil, err
	}
	if err := h.Record(ctx, rule); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	out := dto.MapPriceRule(rule)
	return &out, nil
}

// BulkCreatePriceRulesCommand applies one price to the same range of several units.
type BulkCreatePriceRulesCommand struct {
	UnitIDs         []string       `json:"unit_ids" validate:"required,min=1,dive,required"`
	StartDate       daterange.Date `json:"start_date" validate:"required"`
	EndDate         daterange.Date `json:"end_date" validate:"required"`
	Price           money.Money    `json:"price" validate:"gte=0"`
	MinNights       int            `json:"min_nights" validate:"gte=0"`
	IdempotencyKeyV string         `json:"-"`
}

func (c BulkCreatePriceRulesCommand) Key() string { return bulkPriceRulesKey }

func (c BulkCreatePriceRulesCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c BulkCreatePriceRulesCommand) ResultPrototype() any { return &BulkCreateResult{} }

func (c BulkCreatePriceRulesCommand) Check() error {
	if c.EndDate.Before(c.StartDate) {
		return domainrules.ErrEndBeforeStart
	}
	return nil
}

type BulkCreateResult struct {
	Created []dto.PriceRule `json:"created"`
	Count   int             `json:"count"`
}

type BulkCreatePriceRulesHandler struct {
	handlersupport.CommandDeps
}

// Handle creates every rule or none: unknown units abort the whole command.
func (h *BulkCreatePriceRulesHandler) Handle(ctx context.Context, cmd BulkCreatePriceRulesCommand) (*BulkCreateResult, error) {
	unit, ctx, commit, cleanup, err := h.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ids := make([]units.UnitID, 0, len(cmd.UnitIDs))
	for _, raw := range cmd.UnitIDs {
		u, err := unit.Units().ByID(ctx, units.UnitID(strings.TrimSpace(raw)))
		if err != nil {
			return nil, err
		}
		ids = append(ids, u.ID)
	}
	created, err := overview.FanOutPriceRules(overview.BulkPriceParams{
		UnitIDs:   ids,
		Start:     cmd.StartDate,
		End:       cmd.EndDate,
		Price:     cmd.Price,
		MinNights: cmd.MinNights,
		NewID:     func() domainrules.RuleID { return domainrules.RuleID(h.ID()) },
		Now:       h.Clock.Time(),
	})
	if err != nil {
		return nil, err
	}
	sources := make([]outbox.Source, 0, len(created))
	for _, rule := range created {
		if err := unit.PriceRules().Save(ctx, rule); err != nil {
			return nil, err
		}
		sources = append(sources, rule)
	}
	if err := h.Record(ctx, sources...); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	res := &BulkCreateResult{Created: dto.MapPriceRules(created)}
	res.Count = len(res.Created)
	return res, nil
}

type ImportPricesCommand struct {
	UnitID    string `json:"unit_id" validate:"required"`
	CSV       string `json:"csv" validate:"required"`
	Overwrite bool   `json:"overwrite"`
}

func (c ImportPricesCommand) Key() string { return importPricesKey }

type ImportPricesResult struct {
	Created int                    `json:"created"`
	Updated int                    `json:"updated"`
	Skipped int                    `json:"skipped"`
	Errors  []overview.ImportError `json:"errors"`
}

type ImportPricesHandler struct {
	handlersupport.CommandDeps
}

func (h *ImportPricesHandler) Handle(ctx context.Context, cmd ImportPricesCommand) (*ImportPricesResult, error) {
	prices, problems, err := overview.ParsePriceCSV(strings.NewReader(cmd.CSV))
	if err != nil {
		return nil, err
	}
	unit, ctx, commit, cleanup, err := h.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	u, err := unit.Units().ByID(ctx, units.UnitID(cmd.UnitID))
	if err != nil {
		return nil, err
	}
	var existing []*domainrules.PriceRule
	if len(prices) > 0 {
		// prices come back sorted by date
		window, err := daterange.Inclusive(prices[0].Date, prices[len(prices)-1].Date)
		if err != nil {
			return nil, err
		}
		if existing, err = unit.PriceRules().ListByUnit(ctx, u.ID, &window); err != nil {
			return nil, err
		}
	}
	plan := overview.PlanPriceImport(overview.ImportParams{
		UnitID:    u.ID,
		Prices:    prices,
		Existing:  existing,
		Overwrite: cmd.Overwrite,
		NewID:     func() domainrules.RuleID { return domainrules.RuleID(h.ID()) },
		Now:       h.Clock.Time(),
	})
	sources := make([]outbox.Source, 0, len(plan.Create)+len(plan.Update))
	for _, group := range [][]*domainrules.PriceRule{plan.Create, plan.Update} {
		for _, rule := range group {
			if err := unit.PriceRules().Save(ctx, rule); err != nil {
				return nil, err
			}
			sources = append(sources, rule)
		}
	}
	if err := h.Record(ctx, sources...); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	res := &ImportPricesResult{
		Created: len(plan.Create),
		Updated: len(plan.Update),
		Skipped: plan.Skipped,
		Errors:  append(problems, plan.Errors...),
	}
	if res.Errors == nil {
		res.Errors = []overview.ImportError{}
	}
	return res, nil
}

var (
	_ commands.Handler[CreatePriceRuleCommand, *dto.PriceRule]         = (*CreatePriceRuleHandler)(nil)
	_ commands.Handler[BulkCreatePriceRulesCommand, *BulkCreateResult] = (*BulkCreatePriceRulesHandler)(nil)
	_ commands.Handler[ImportPricesCommand, *ImportPricesResult]       = (*ImportPricesHandler)(nil)
	_ middleware.IdempotentCommand                                     = CreatePriceRuleCommand{}
	_ middleware.IdempotentCommand                                     = BulkCreatePriceRulesCommand{}
	_ middleware.SelfChecking                                          = CreatePriceRuleCommand{}
)
