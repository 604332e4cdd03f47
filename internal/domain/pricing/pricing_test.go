package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

func testUnit(t *testing.T) *units.Unit {
	t.Helper()
	u, err := units.NewUnit(units.CreateUnitParams{
		ID:             "unit-a",
		Title:          "Sea view flat",
		Status:         units.StatusActive,
		BasePrice:      money.FromUnits(100),
		CleaningFee:    money.FromUnits(40),
		ExtraGuestFee:  money.FromUnits(15),
		MaxGuests:      4,
		IncludedGuests: 2,
		MinStayNights:  2,
	})
	require.NoError(t, err)
	return u
}

func priceRule(unit units.UnitID, id, start, end, price string) *rules.PriceRule {
	p := money.Must(price)
	return &rules.PriceRule{
		ID:     rules.RuleID(id),
		UnitID: unit,
		Start:  daterange.MustParse(start),
		End:    daterange.MustParse(end),
		Price:  &p,
	}
}

func TestPriceForNewerStartWinsRegardlessOfOrder(t *testing.T) {
	u := testUnit(t)
	older := priceRule(u.ID, "r1", "2025-07-01", "2025-07-31", "120")
	newer := priceRule(u.ID, "r2", "2025-07-10", "2025-07-20", "180")
	d := daterange.MustParse("2025-07-15")

	assert.Equal(t, money.FromUnits(180), PriceFor(d, u, []*rules.PriceRule{older, newer}))
	assert.Equal(t, money.FromUnits(180), PriceFor(d, u, []*rules.PriceRule{newer, older}))
	assert.Equal(t, money.FromUnits(120), PriceFor(daterange.MustParse("2025-07-05"), u, []*rules.PriceRule{newer, older}))
}

func TestPriceForFallsBackToBasePrice(t *testing.T) {
	u := testUnit(t)
	window := daterange.Range{Start: daterange.MustParse("2025-01-01"), End: daterange.MustParse("2025-01-10")}
	for _, d := range window.Days() {
		assert.Equal(t, u.BasePrice, PriceFor(d, u, nil))
	}
}

func TestPriceForRangeIsInclusive(t *testing.T) {
	u := testUnit(t)
	r := priceRule(u.ID, "r1", "2025-08-01", "2025-08-10", "150")
	all := []*rules.PriceRule{r}
	assert.Equal(t, money.FromUnits(150), PriceFor(daterange.MustParse("2025-08-01"), u, all))
	assert.Equal(t, money.FromUnits(150), PriceFor(daterange.MustParse("2025-08-10"), u, all))
	assert.Equal(t, money.FromUnits(100), PriceFor(daterange.MustParse("2025-08-11"), u, all))
}

func TestPriceForSkipsMalformedAndForeignRules(t *testing.T) {
	u := testUnit(t)
	missing := priceRule(u.ID, "missing", "2025-07-10", "2025-07-20", "0")
	missing.Price = nil
	inverted := priceRule(u.ID, "inverted", "2025-07-20", "2025-07-10", "999")
	foreign := priceRule("unit-b", "foreign", "2025-07-01", "2025-07-31", "500")
	fallback := priceRule(u.ID, "ok", "2025-07-01", "2025-07-31", "130")

	got := PriceFor(daterange.MustParse("2025-07-15"), u, []*rules.PriceRule{missing, inverted, foreign, fallback})
	assert.Equal(t, money.FromUnits(130), got)
}

func TestPriceForSameStartPrefersNewestRule(t *testing.T) {
	u := testUnit(t)
	first := priceRule(u.ID, "a", "2025-07-01", "2025-07-31", "110")
	first.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	second := priceRule(u.ID, "b", "2025-07-01", "2025-07-31", "140")
	second.CreatedAt = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, money.FromUnits(140), PriceFor(daterange.MustParse("2025-07-02"), u, []*rules.PriceRule{first, second}))
}

func TestMinStayOverride(t *testing.T) {
	u := testUnit(t)
	summer := priceRule(u.ID, "summer", "2025-07-01", "2025-08-31", "150")
	summer.MinNights = 7
	peak := priceRule(u.ID, "aug", "2025-08-10", "2025-08-20", "200")
	peak.MinNights = 5
	all := []*rules.PriceRule{summer, peak}

	inside, _ := daterange.New(daterange.MustParse("2025-08-12"), daterange.MustParse("2025-08-15"))
	assert.Equal(t, 5, MinStayFor(u, inside, all), "smallest covering override wins")

	july, _ := daterange.New(daterange.MustParse("2025-07-05"), daterange.MustParse("2025-07-08"))
	assert.Equal(t, 7, MinStayFor(u, july, all))

	crossing, _ := daterange.New(daterange.MustParse("2025-08-30"), daterange.MustParse("2025-09-03"))
	assert.Equal(t, 2, MinStayFor(u, crossing, all), "rules that do not cover the whole stay are ignored")

	assert.Equal(t, 5, NewResolver(u, all).MinStayFrom(daterange.MustParse("2025-08-12")))
}

func TestQuote(t *testing.T) {
	u := testUnit(t)
	all := []*rules.PriceRule{priceRule(u.ID, "r1", "2025-08-02", "2025-08-03", "150")}
	stay, err := daterange.New(daterange.MustParse("2025-08-01"), daterange.MustParse("2025-08-04"))
	require.NoError(t, err)

	q, err := QuoteStay(u, all, stay, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, q.Nights)
	assert.Equal(t, 1, q.ExtraGuests)
	require.Len(t, q.NightlyPrices, 3)
	assert.False(t, q.NightlyPrices[0].IsCustom)
	assert.True(t, q.NightlyPrices[1].IsCustom)
	assert.Equal(t, money.FromUnits(400), q.Accommodation)
	assert.Equal(t, money.FromUnits(45), q.ExtraGuestFee)
	assert.Equal(t, money.FromUnits(445), q.Subtotal)
	assert.Equal(t, money.FromUnits(485), q.Total)
	assert.Equal(t, money.Must("133.33"), q.AverageNightly)
	assert.Len(t, q.Fees, 2)
}

func TestQuoteRejectsGuestCounts(t *testing.T) {
	u := testUnit(t)
	stay, _ := daterange.New(daterange.MustParse("2025-08-01"), daterange.MustParse("2025-08-04"))

	_, err := QuoteStay(u, nil, stay, 0)
	assert.ErrorIs(t, err, ErrInvalidGuests)
	_, err = QuoteStay(u, nil, stay, 5)
	assert.ErrorIs(t, err, ErrTooManyGuests)
}
