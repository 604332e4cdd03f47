package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/app/middleware"
	appoutbox "rentcal/internal/app/outbox"
	"rentcal/internal/app/uow"
	domainbooking "rentcal/internal/domain/booking"
	domainrules "rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	domainunits "rentcal/internal/domain/units"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func rng(t *testing.T, from, to string) daterange.Range {
	t.Helper()
	r, err := daterange.New(daterange.MustParse(from), daterange.MustParse(to))
	require.NoError(t, err)
	return r
}

func TestUnitRepositoryCopiesAggregates(t *testing.T) {
	ctx := context.Background()
	repo := NewUnitRepository()
	unit, err := domainunits.NewUnit(domainunits.CreateUnitParams{ID: "u1", Title: "Loft", MaxGuests: 2, BasePrice: money.FromUnits(100), Now: now})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, unit))

	got, err := repo.ByID(ctx, "u1")
	require.NoError(t, err)
	got.Title = "changed"

	again, err := repo.ByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Loft", again.Title)
	assert.Equal(t, int64(1), again.Version)

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, domainunits.ErrNotFound)
}

func TestBookingRepositoryWindow(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	for _, b := range []struct {
		id       domainbooking.BookingID
		from, to string
	}{
		{"b2", "2025-07-10", "2025-07-12"},
		{"b1", "2025-07-01", "2025-07-03"},
		{"b3", "2025-08-01", "2025-08-05"},
	} {
		booking, err := domainbooking.NewBooking(domainbooking.CreateParams{ID: b.id, UnitID: "u1", Stay: rng(t, b.from, b.to), Guests: 1, CreatedAt: now})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, booking))
	}

	all, err := repo.ListByUnit(ctx, "u1", nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domainbooking.BookingID("b1"), all[0].ID)
	assert.Empty(t, all[0].PendingEvents())

	window := rng(t, "2025-07-03", "2025-07-11")
	inWindow, err := repo.ListByUnit(ctx, "u1", &window)
	require.NoError(t, err)
	require.Len(t, inWindow, 1)
	assert.Equal(t, domainbooking.BookingID("b2"), inWindow[0].ID)

	other, err := repo.ListByUnit(ctx, "u2", nil)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPriceRuleRepositoryWindowIsInclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewPriceRuleRepository()
	price := money.FromUnits(150)
	rule, err := domainrules.NewPriceRule(domainrules.NewPriceRuleParams{
		ID: "p1", UnitID: "u1", Start: daterange.MustParse("2025-07-01"), End: daterange.MustParse("2025-07-05"), Price: &price, Now: now,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, rule))

	touching := rng(t, "2025-07-05", "2025-07-09")
	got, err := repo.ListByUnit(ctx, "u1", &touching)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	after := rng(t, "2025-07-06", "2025-07-09")
	got, err = repo.ListByUnit(ctx, "u1", &after)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.Delete(ctx, "p1"))
	assert.ErrorIs(t, repo.Delete(ctx, "p1"), domainrules.ErrNotFound)
}

func TestClosureRepositoryDeleteExternal(t *testing.T) {
	ctx := context.Background()
	repo := NewClosureRepository()
	add := func(id domainrules.RuleID, external bool, calendar string) {
		c, err := domainrules.NewClosure(domainrules.NewClosureParams{
			ID: id, UnitID: "u1", Start: daterange.MustParse("2025-07-01"), End: daterange.MustParse("2025-07-03"),
			External: external, Calendar: calendar, Now: now,
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))
	}
	add("c1", true, "airbnb")
	add("c2", true, "airbnb")
	add("c3", true, "booking")
	add("c4", false, "")

	removed, err := repo.DeleteExternal(ctx, "u1", "airbnb")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := repo.ListByUnit(ctx, "u1", nil)
	require.NoError(t, err)
	ids := []domainrules.RuleID{left[0].ID, left[1].ID}
	assert.ElementsMatch(t, []domainrules.RuleID{"c3", "c4"}, ids)
}

func TestFactoryBegin(t *testing.T) {
	_, err := Factory{}.Begin(context.Background(), uow.TxOptions{})
	assert.ErrorIs(t, err, ErrFactoryMisconfigured)

	unit, err := NewFactory().Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.NotNil(t, unit.Units())
	assert.NoError(t, unit.Commit(context.Background()))
}

func TestFactorySerializesWriteUnits(t *testing.T) {
	f := NewFactory()
	first, err := f.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)

	reader, err := f.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	require.NoError(t, reader.Rollback(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.Begin(ctx, uow.TxOptions{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, first.Commit(context.Background()))
	require.NoError(t, first.Rollback(context.Background()))

	second, err := f.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, second.Rollback(context.Background()))
}

func TestOutboxFlushPublishes(t *testing.T) {
	box := NewOutbox()
	require.NoError(t, box.Add(context.Background(), appoutbox.EventRecord{ID: "e1", Name: "booking.created"}))
	assert.Empty(t, box.Published())
	require.NoError(t, box.Flush(context.Background()))
	require.Len(t, box.Published(), 1)
	assert.Equal(t, "e1", box.Published()[0].ID)
}

func TestIdempotencyStorePurgesStaleRecords(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore()
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "old", OccurredAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "fresh", OccurredAt: now}))

	assert.Equal(t, 1, store.Purge(now.Add(-24*time.Hour)))
	assert.Equal(t, 1, store.Len())
	_, found, err := store.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, _ = store.Get(ctx, "fresh")
	assert.True(t, found)
}
