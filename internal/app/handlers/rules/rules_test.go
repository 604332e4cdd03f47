package rules

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handlersupport "rentcal/internal/app/handlers/support"
	domainrules "rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	domainunits "rentcal/internal/domain/units"
	"rentcal/internal/infra/storage/memory"
)

func setup(t *testing.T, ids ...domainunits.UnitID) (memory.Factory, handlersupport.CommandDeps) {
	t.Helper()
	factory := memory.NewFactory()
	for _, id := range ids {
		u, err := domainunits.NewUnit(domainunits.CreateUnitParams{ID: id, Title: "Unit " + string(id), Status: domainunits.StatusActive, MaxGuests: 2, BasePrice: money.FromUnits(90)})
		require.NoError(t, err)
		require.NoError(t, factory.UnitsRepo.Save(context.Background(), u))
	}
	seq := 0
	return factory, handlersupport.CommandDeps{
		UoWFactory: factory,
		Outbox:     memory.NewOutbox(),
		NewID: func() string {
			seq++
			return "r" + strconv.Itoa(seq)
		},
		Clock: handlersupport.Clock{Now: func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }},
	}
}

func d(s string) daterange.Date { return daterange.MustParse(s) }

func TestCreatePriceRuleAndList(t *testing.T) {
	factory, deps := setup(t, "u1")
	ctx := context.Background()
	created, err := (&CreatePriceRuleHandler{CommandDeps: deps}).Handle(ctx, CreatePriceRuleCommand{
		UnitID: "u1", StartDate: d("2025-07-01"), EndDate: d("2025-07-31"), Price: money.FromUnits(140), MinNights: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", created.ID)

	list, err := (&ListRulesHandler{UoWFactory: factory}).Handle(ctx, ListRulesQuery{UnitID: "u1", Kind: "price"})
	require.NoError(t, err)
	require.Len(t, list.PriceRules, 1)
	assert.Equal(t, 3, list.PriceRules[0].MinNights)
	assert.Nil(t, list.Closures)

	_, err = (&CreatePriceRuleHandler{CommandDeps: deps}).Handle(ctx, CreatePriceRuleCommand{
		UnitID: "missing", StartDate: d("2025-07-01"), EndDate: d("2025-07-31"), Price: money.FromUnits(140),
	})
	assert.ErrorIs(t, err, domainunits.ErrNotFound)
}

func TestCreatePriceRuleCheckRejectsInvertedDates(t *testing.T) {
	cmd := CreatePriceRuleCommand{UnitID: "u1", StartDate: d("2025-07-10"), EndDate: d("2025-07-01")}
	assert.ErrorIs(t, cmd.Check(), domainrules.ErrEndBeforeStart)
}

func TestBulkCreateAbortsOnUnknownUnit(t *testing.T) {
	factory, deps := setup(t, "u1", "u2")
	ctx := context.Background()
	h := &BulkCreatePriceRulesHandler{CommandDeps: deps}
	res, err := h.Handle(ctx, BulkCreatePriceRulesCommand{
		UnitIDs: []string{"u1", "u2", "u1"}, StartDate: d("2025-12-20"), EndDate: d("2025-12-31"), Price: money.FromUnits(200),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	_, err = h.Handle(ctx, BulkCreatePriceRulesCommand{
		UnitIDs: []string{"u1", "ghost"}, StartDate: d("2026-01-01"), EndDate: d("2026-01-02"), Price: money.FromUnits(200),
	})
	assert.ErrorIs(t, err, domainunits.ErrNotFound)

	rules, err := factory.PriceRulesRepo.ListByUnit(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestImportPricesOverwrite(t *testing.T) {
	factory, deps := setup(t, "u1")
	ctx := context.Background()
	h := &ImportPricesHandler{CommandDeps: deps}
	res, err := h.Handle(ctx, ImportPricesCommand{UnitID: "u1", CSV: "date,price\n2025-07-02,120\n2025-07-01,110\nbad,1\n"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Len(t, res.Errors, 1)

	res, err = h.Handle(ctx, ImportPricesCommand{UnitID: "u1", CSV: "date,price\n2025-07-01,130\n"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Skipped)

	res, err = h.Handle(ctx, ImportPricesCommand{UnitID: "u1", CSV: "date,price\n2025-07-01,130\n", Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	rules, err := factory.PriceRulesRepo.ListByUnit(ctx, "u1", nil)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	for _, r := range rules {
		if r.Start == d("2025-07-01") {
			assert.Equal(t, money.FromUnits(130), *r.Price)
		}
	}
}

func TestSyncExternalClosuresReplacesFeed(t *testing.T) {
	factory, deps := setup(t, "u1")
	ctx := context.Background()
	h := &SyncExternalClosuresHandler{CommandDeps: deps}
	res, err := h.Handle(ctx, SyncExternalClosuresCommand{
		UnitID: "u1", Calendar: "main", Provider: "Airbnb",
		Ranges: []ExternalRange{
			{StartDate: d("2025-07-01"), EndDate: d("2025-07-04")},
			{StartDate: d("2025-07-10"), EndDate: d("2025-07-10")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, SyncExternalResult{Removed: 0, Added: 1, Skipped: 1}, *res)

	res, err = h.Handle(ctx, SyncExternalClosuresCommand{
		UnitID: "u1", Calendar: "main", Provider: "Airbnb",
		Ranges: []ExternalRange{{StartDate: d("2025-08-01"), EndDate: d("2025-08-03")}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)

	closures, err := factory.ClosuresRepo.ListByUnit(ctx, "u1", nil)
	require.NoError(t, err)
	require.Len(t, closures, 1)
	assert.Equal(t, "[main] Synced from Airbnb", closures[0].Reason)
	assert.True(t, closures[0].External)
}

func TestDeleteRuleChecksOwner(t *testing.T) {
	factory, deps := setup(t, "u1", "u2")
	ctx := context.Background()
	closure, err := (&CreateClosureHandler{CommandDeps: deps}).Handle(ctx, CreateClosureCommand{
		UnitID: "u1", StartDate: d("2025-07-01"), EndDate: d("2025-07-03"), Reason: "painting",
	})
	require.NoError(t, err)

	h := &DeleteRuleHandler{CommandDeps: deps}
	_, err = h.Handle(ctx, DeleteRuleCommand{UnitID: "u2", Kind: "closure", RuleID: closure.ID})
	assert.ErrorIs(t, err, domainrules.ErrNotFound)

	res, err := h.Handle(ctx, DeleteRuleCommand{UnitID: "u1", Kind: "closure-rules", RuleID: closure.ID})
	require.NoError(t, err)
	assert.True(t, res.Deleted)

	left, err := factory.ClosuresRepo.ListByUnit(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, left)
}
