package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	bookingsapp "rentcal/internal/app/handlers/bookings"
	calendarapp "rentcal/internal/app/handlers/calendar"
	rulesapp "rentcal/internal/app/handlers/rules"
	handlersupport "rentcal/internal/app/handlers/support"
	unitsapp "rentcal/internal/app/handlers/units"
	"rentcal/internal/app/middleware"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/validation"
	"rentcal/internal/domain/shared/money"
	domainunits "rentcal/internal/domain/units"
	"rentcal/internal/infra/config"
	"rentcal/internal/infra/obs"
	"rentcal/internal/infra/storage/memory"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	factory := memory.NewFactory()
	unit, err := domainunits.NewUnit(domainunits.CreateUnitParams{
		ID: "u1", Title: "Garden flat", Status: domainunits.StatusActive,
		BasePrice: money.FromUnits(100), MaxGuests: 4, MinStayNights: 1,
	})
	require.NoError(t, err)
	require.NoError(t, factory.UnitsRepo.Save(context.Background(), unit))

	box := memory.NewOutbox()
	deps := handlersupport.CommandDeps{
		UoWFactory: factory,
		Outbox:     box,
		Clock:      handlersupport.Clock{Now: func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }},
	}
	base := commands.NewInMemoryBus()
	commands.RegisterHandler[rulesapp.CreatePriceRuleCommand, *dto.PriceRule](base, &rulesapp.CreatePriceRuleHandler{CommandDeps: deps})
	commands.RegisterHandler[rulesapp.CreateClosureCommand, *dto.ClosureRule](base, &rulesapp.CreateClosureHandler{CommandDeps: deps})
	commands.RegisterHandler[rulesapp.DeleteRuleCommand, *rulesapp.DeleteRuleResult](base, &rulesapp.DeleteRuleHandler{CommandDeps: deps})
	commands.RegisterHandler[rulesapp.ImportPricesCommand, *rulesapp.ImportPricesResult](base, &rulesapp.ImportPricesHandler{CommandDeps: deps})
	commands.RegisterHandler[bookingsapp.CreateBookingCommand, *dto.Booking](base, &bookingsapp.CreateBookingHandler{CommandDeps: deps})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cmdBus := middleware.ChainCommands(base,
		middleware.Validation(validation.New()),
		middleware.Idempotency(memory.NewIdempotencyStore(), middleware.IdempotencyOptions{}),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box, logger),
	)

	qbase := queries.NewInMemoryBus()
	queries.RegisterHandler[unitsapp.ListUnitsQuery, []dto.Unit](qbase, &unitsapp.ListUnitsHandler{UoWFactory: factory})
	queries.RegisterHandler[calendarapp.GetCalendarQuery, dto.Calendar](qbase, &calendarapp.GetCalendarHandler{UoWFactory: factory, MaxDays: 366})
	queries.RegisterHandler[calendarapp.GetPriceQuery, dto.Price](qbase, &calendarapp.GetPriceHandler{UoWFactory: factory})
	queries.RegisterHandler[rulesapp.ListRulesQuery, rulesapp.RuleList](qbase, &rulesapp.ListRulesHandler{UoWFactory: factory})
	queries.RegisterHandler[bookingsapp.ListBookingsQuery, []dto.Booking](qbase, &bookingsapp.ListBookingsHandler{UoWFactory: factory})
	qBus := middleware.ChainQueries(qbase, middleware.QueryValidation(validation.New()))

	return NewRouter(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Units:    UnitHandler{Queries: qBus},
		Rules:    RulesHandler{Commands: cmdBus, Queries: qBus},
		Bookings: BookingHandler{Commands: cmdBus, Queries: qBus},
	})
}

func do(t *testing.T, router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if _, ok := body.(string); !ok && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestListUnitsUsesResultsEnvelope(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/v1/units", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[dto.Results[dto.Unit]](t, rec)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "u1", got.Results[0].ID)
}

func TestPriceRuleLifecycle(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/v1/units/u1/price-rules/", map[string]any{
		"start_date": "2025-07-01", "end_date": "2025-07-03", "price": "150.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[dto.PriceRule](t, rec)

	rec = do(t, router, http.MethodGet, "/api/v1/units/u1/price?date=2025-07-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	price := decode[dto.Price](t, rec)
	assert.Equal(t, 150.0, price.Price)
	assert.True(t, price.IsCustom)

	rec = do(t, router, http.MethodGet, "/api/v1/units/u1/price-rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.Results[dto.PriceRule]](t, rec).Results, 1)

	rec = do(t, router, http.MethodDelete, "/api/v1/units/u1/rules/price-rules/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodDelete, "/api/v1/units/u1/rules/price/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, router, http.MethodDelete, "/api/v1/units/u1/rules/discounts/x", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingConflictMapsTo409(t *testing.T) {
	router := newTestRouter(t)
	stay := map[string]any{"check_in": "2025-07-10", "check_out": "2025-07-12", "guests": 2}
	rec := do(t, router, http.MethodPost, "/api/v1/units/u1/bookings/", stay)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/units/u1/bookings", stay)
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "booking_conflict", body.Kind)

	rec = do(t, router, http.MethodGet, "/api/v1/units/u1/calendar?start=2025-07-09&end=2025-07-12", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cal := decode[dto.Calendar](t, rec)
	require.Len(t, cal.Days, 4)
	assert.False(t, cal.Days[0].IsBlocked)
	assert.True(t, cal.Days[1].IsBlocked)
	assert.True(t, cal.Days[2].IsBlocked)
	assert.False(t, cal.Days[3].IsBlocked)

	rec = do(t, router, http.MethodGet, "/api/v1/units/u1/bookings", nil)
	assert.Len(t, decode[dto.Results[dto.Booking]](t, rec).Results, 1)
}

func TestRequestErrors(t *testing.T) {
	router := newTestRouter(t)
	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing window", http.MethodGet, "/api/v1/units/u1/calendar?start=2025-07-01", nil, http.StatusBadRequest},
		{"bad date", http.MethodGet, "/api/v1/units/u1/price?date=07/01/2025", nil, http.StatusBadRequest},
		{"window too large", http.MethodGet, "/api/v1/units/u1/calendar?start=2025-01-01&end=2026-12-31", nil, http.StatusBadRequest},
		{"unknown unit", http.MethodGet, "/api/v1/units/ghost/calendar?start=2025-07-01&end=2025-07-31", nil, http.StatusNotFound},
		{"invalid guests", http.MethodPost, "/api/v1/units/u1/bookings", map[string]any{"check_in": "2025-07-10", "check_out": "2025-07-12", "guests": 0}, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/v1/units/u1/closure-rules", "{", http.StatusBadRequest},
		{"inverted closure", http.MethodPost, "/api/v1/units/u1/closure-rules", map[string]any{"start_date": "2025-07-05", "end_date": "2025-07-01"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestValidationErrorsCarryFields(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/v1/units/u1/bookings", map[string]any{
		"check_in": "2025-07-10", "check_out": "2025-07-12", "guests": 0,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Contains(t, body.Fields, "guests")
}

func TestClosureIdempotencyKeyReplays(t *testing.T) {
	router := newTestRouter(t)
	payload := map[string]any{"start_date": "2025-08-01", "end_date": "2025-08-05", "reason": "Maintenance"}
	first := do(t, router, http.MethodPost, "/api/v1/units/u1/closure-rules", payload, "Idempotency-Key", "k-1")
	second := do(t, router, http.MethodPost, "/api/v1/units/u1/closure-rules", payload, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, decode[dto.ClosureRule](t, first).ID, decode[dto.ClosureRule](t, second).ID)

	rec := do(t, router, http.MethodGet, "/api/v1/units/u1/closure-rules/", nil)
	assert.Len(t, decode[dto.Results[dto.ClosureRule]](t, rec).Results, 1)
}

func TestImportPricesFromRawCSV(t *testing.T) {
	router := newTestRouter(t)
	csv := "date,price\n2025-09-01,120\n2025-09-02,\nnot-a-date,90\n2025-09-03,130\n"
	rec := do(t, router, http.MethodPost, "/api/v1/units/u1/price-rules/import", csv, "Content-Type", "text/csv")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[rulesapp.ImportPricesResult](t, rec)
	assert.Equal(t, 2, got.Created)
	assert.Len(t, got.Errors, 1)

	rec = do(t, router, http.MethodPost, "/api/v1/units/u1/price-rules/import", "", "Content-Type", "text/csv")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/livez", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/readyz", nil).Code)
}
