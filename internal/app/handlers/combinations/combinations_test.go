package combinations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "rentcal/internal/domain/booking"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	domainunits "rentcal/internal/domain/units"
	"rentcal/internal/infra/storage/memory"
)

func d(s string) daterange.Date { return daterange.MustParse(s) }

func seed(t *testing.T) memory.Factory {
	t.Helper()
	ctx := context.Background()
	factory := memory.NewFactory()
	for _, fix := range []struct {
		id    domainunits.UnitID
		guest int
		price int64
	}{{"a", 2, 100}, {"b", 4, 150}, {"c", 3, 80}} {
		u, err := domainunits.NewUnit(domainunits.CreateUnitParams{
			ID: fix.id, Title: string(fix.id), Status: domainunits.StatusActive,
			MaxGuests: fix.guest, BasePrice: money.FromUnits(fix.price),
		})
		require.NoError(t, err)
		require.NoError(t, factory.UnitsRepo.Save(ctx, u))
	}
	g, err := domainunits.NewGroup("g1", "Villa", []domainunits.UnitID{"a", "b", "c"})
	require.NoError(t, err)
	require.NoError(t, factory.GroupsRepo.Save(ctx, g))
	return factory
}

func TestSearchSkipsBookedUnits(t *testing.T) {
	factory := seed(t)
	ctx := context.Background()
	stay, err := daterange.New(d("2025-07-01"), d("2025-07-03"))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{ID: "bk", UnitID: "b", Stay: stay, Guests: 1, CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, factory.BookingsRepo.Save(ctx, b))

	res, err := (&SearchHandler{UoWFactory: factory}).Handle(ctx, SearchQuery{GroupID: "g1", CheckIn: d("2025-07-01"), CheckOut: d("2025-07-03"), Guests: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Nights)
	require.Len(t, res.Combinations, 1)
	units := res.Combinations[0].Units
	require.Len(t, units, 2)
	assert.ElementsMatch(t, []domainunits.UnitID{"a", "c"}, []domainunits.UnitID{units[0].UnitID, units[1].UnitID})
	assert.Equal(t, money.FromUnits(360), res.Combinations[0].Total)

	_, err = (&SearchHandler{UoWFactory: factory}).Handle(ctx, SearchQuery{GroupID: "nope", CheckIn: d("2025-07-01"), CheckOut: d("2025-07-03"), Guests: 1})
	assert.ErrorIs(t, err, domainunits.ErrGroupNotFound)
}

func TestSearchAcrossGroupsReturnsEmptySlice(t *testing.T) {
	factory := seed(t)
	res, err := (&SearchHandler{UoWFactory: factory}).Handle(context.Background(), SearchQuery{CheckIn: d("2025-07-01"), CheckOut: d("2025-07-03"), Guests: 20})
	require.NoError(t, err)
	assert.NotNil(t, res.Combinations)
	assert.Empty(t, res.Combinations)
}

func TestCombinedCalendar(t *testing.T) {
	factory := seed(t)
	ctx := context.Background()
	stay, err := daterange.New(d("2025-07-02"), d("2025-07-04"))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{ID: "bk", UnitID: "a", Stay: stay, Guests: 1, CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, factory.BookingsRepo.Save(ctx, b))

	cal, err := (&CombinedCalendarHandler{UoWFactory: factory}).Handle(ctx, CombinedCalendarQuery{Start: d("2025-07-01"), End: d("2025-07-05")})
	require.NoError(t, err)
	require.Len(t, cal.Days, 5)
	assert.False(t, cal.Days[0].IsBlocked)
	require.NotNil(t, cal.Days[0].Price)
	assert.Equal(t, money.FromUnits(330), *cal.Days[0].Price)
	assert.True(t, cal.Days[1].IsBlocked)
	assert.True(t, cal.Days[2].IsBlocked)
	assert.False(t, cal.Days[3].IsBlocked)
}

func TestCombinedCalendarWithoutGroups(t *testing.T) {
	_, err := (&CombinedCalendarHandler{UoWFactory: memory.NewFactory()}).Handle(context.Background(), CombinedCalendarQuery{Start: d("2025-07-01"), End: d("2025-07-05")})
	assert.ErrorIs(t, err, ErrNoActiveGroups)
}
