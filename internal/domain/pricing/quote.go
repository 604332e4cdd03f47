package pricing

import (
	"errors"

	"rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

var (
	ErrInvalidGuests     = errors.New("pricing: guests must be at least 1")
	ErrTooManyGuests     = errors.New("pricing: guests exceed unit capacity")
	ErrNegativeComponent = errors.New("pricing: components cannot be negative")
	ErrUnitRequired      = errors.New("pricing: unit is required")
)

const (
	FeeCleaning    = "cleaning"
	FeeExtraGuests = "extra_guests"
)

type Fee struct {
	Name   string      `json:"name"`
	Amount money.Money `json:"amount"`
}

type Night struct {
	Date  daterange.Date `json:"date"`
	Price money.Money    `json:"price"`
	// IsCustom is set when a price rule, not the base price, decided the night.
	IsCustom bool         `json:"is_custom"`
	RuleID   rules.RuleID `json:"rule_id,omitempty"`
}

// Quote is the price of one stay in one unit.
type Quote struct {
	UnitID        units.UnitID    `json:"unit_id"`
	Stay          daterange.Range `json:"stay"`
	Nights        int             `json:"nights"`
	Guests        int             `json:"guests"`
	ExtraGuests   int             `json:"extra_guests"`
	NightlyPrices []Night         `json:"nightly_prices"`
	Accommodation money.Money     `json:"accommodation"`
	ExtraGuestFee money.Money     `json:"extra_guest_fee"`
	// Subtotal is accommodation plus the extra-guest fee.
	Subtotal       money.Money `json:"subtotal"`
	CleaningFee    money.Money `json:"cleaning_fee"`
	Fees           []Fee       `json:"fees"`
	Total          money.Money `json:"total"`
	AverageNightly money.Money `json:"average_nightly"`
}

// Nightly lists the resolved price of every night of stay.
func (r *Resolver) Nightly(stay daterange.Range) []Night {
	days := stay.Days()
	out := make([]Night, 0, len(days))
	for _, d := range days {
		n := Night{Date: d}
		if rule := r.Match(d); rule != nil {
			n.Price = *rule.Price
			n.RuleID = rule.ID
			n.IsCustom = r.unit == nil || n.Price != r.unit.BasePrice
		} else if r.unit != nil {
			n.Price = r.unit.BasePrice
		}
		out = append(out, n)
	}
	return out
}

// Quote prices stay for guests. Capacity is enforced; availability is not.
func (r *Resolver) Quote(stay daterange.Range, guests int) (Quote, error) {
	if r.unit == nil {
		return Quote{}, ErrUnitRequired
	}
	if err := stay.Validate(); err != nil {
		return Quote{}, err
	}
	if guests < 1 {
		return Quote{}, ErrInvalidGuests
	}
	if guests > r.unit.MaxGuests {
		return Quote{}, ErrTooManyGuests
	}
	q := Quote{
		UnitID:        r.unit.ID,
		Stay:          stay,
		Nights:        stay.Nights(),
		Guests:        guests,
		ExtraGuests:   r.unit.ExtraGuests(guests),
		NightlyPrices: r.Nightly(stay),
		CleaningFee:   r.unit.CleaningFee,
	}
	q.ExtraGuestFee = r.unit.ExtraGuestFee.Multiply(int64(q.ExtraGuests * q.Nights))
	if !q.CleaningFee.IsZero() {
		q.Fees = append(q.Fees, Fee{Name: FeeCleaning, Amount: q.CleaningFee})
	}
	if !q.ExtraGuestFee.IsZero() {
		q.Fees = append(q.Fees, Fee{Name: FeeExtraGuests, Amount: q.ExtraGuestFee})
	}
	if err := q.RecalculateTotal(); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// RecalculateTotal derives the sums from the nightly prices and the fee fields.
func (q *Quote) RecalculateTotal() error {
	var accommodation money.Money
	for _, n := range q.NightlyPrices {
		if n.Price.IsNegative() {
			return ErrNegativeComponent
		}
		accommodation = accommodation.Add(n.Price)
	}
	if q.ExtraGuestFee.IsNegative() || q.CleaningFee.IsNegative() {
		return ErrNegativeComponent
	}
	q.Accommodation = accommodation
	q.Subtotal = accommodation.Add(q.ExtraGuestFee)
	q.Total = q.Subtotal.Add(q.CleaningFee)
	if q.Nights > 0 {
		q.AverageNightly = accommodation.Div(int64(q.Nights))
	}
	return nil
}

// QuoteStay prices stay in unit for guests using the unit's price rules.
func QuoteStay(unit *units.Unit, all []*rules.PriceRule, stay daterange.Range, guests int) (Quote, error) {
	return NewResolver(unit, all).Quote(stay, guests)
}
