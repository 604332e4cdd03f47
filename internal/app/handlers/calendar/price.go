package calendar

import (
	"context"

	"rentcal/internal/app/dto"
	handlersupport "rentcal/internal/app/handlers/support"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/uow"
	"rentcal/internal/domain/pricing"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

const (
	getPriceKey = "pricing.price"
	getQuoteKey = "pricing.quote"
)

type GetPriceQuery struct {
	UnitID string         `json:"unit_id" validate:"required"`
	Date   daterange.Date `json:"date" validate:"required"`
}

func (q GetPriceQuery) Key() string { return getPriceKey }

type GetPriceHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetPriceHandler) Handle(ctx context.Context, q GetPriceQuery) (dto.Price, error) {
	unit, execCtx, cleanup, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.Price{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	u, err := unit.Units().ByID(execCtx, units.UnitID(q.UnitID))
	if err != nil {
		return dto.Price{}, err
	}
	day, _ := daterange.Inclusive(q.Date, q.Date)
	rules, err := unit.PriceRules().ListByUnit(execCtx, u.ID, &day)
	if err != nil {
		return dto.Price{}, err
	}
	resolver := pricing.NewResolver(u, rules)
	price := resolver.Price(q.Date)
	return dto.Price{
		UnitID:   string(u.ID),
		Date:     q.Date,
		Price:    price.Float(),
		IsCustom: resolver.Match(q.Date) != nil && price != u.BasePrice,
	}, nil
}

type GetQuoteQuery struct {
	UnitID   string         `json:"unit_id" validate:"required"`
	CheckIn  daterange.Date `json:"check_in" validate:"required"`
	CheckOut daterange.Date `json:"check_out" validate:"required"`
	Guests   int            `json:"guests" validate:"min=1"`
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

type GetQuoteHandler struct {
	UoWFactory uow.UoWFactory
	Clock      handlersupport.Clock
}

// QuoteResult is a stay quote plus its availability verdict.
type QuoteResult struct {
	Quote        pricing.Quote  `json:"quote"`
	Availability dto.RangeCheck `json:"availability"`
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (QuoteResult, error) {
	stay, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return QuoteResult{}, err
	}
	unit, execCtx, cleanup, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return QuoteResult{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	u, err := unit.Units().ByID(execCtx, units.UnitID(q.UnitID))
	if err != nil {
		return QuoteResult{}, err
	}
	in, err := handlersupport.LoadInputs(execCtx, unit, u, &stay)
	if err != nil {
		return QuoteResult{}, err
	}
	quote, err := pricing.QuoteStay(u, in.PriceRules, stay, q.Guests)
	if err != nil {
		return QuoteResult{}, err
	}
	check, err := Evaluate(u, stay, in, h.Clock.Today())
	if err != nil {
		return QuoteResult{}, err
	}
	return QuoteResult{Quote: quote, Availability: check}, nil
}

var (
	_ queries.Handler[GetPriceQuery, dto.Price]   = (*GetPriceHandler)(nil)
	_ queries.Handler[GetQuoteQuery, QuoteResult] = (*GetQuoteHandler)(nil)
)
