package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/app/dto"
	combinationsapp "rentcal/internal/app/handlers/combinations"
	rulesapp "rentcal/internal/app/handlers/rules"
	"rentcal/internal/domain/overview"
	"rentcal/internal/infra/config"
	ginserver "rentcal/internal/infra/http/gin"
	"rentcal/internal/infra/obs"
	"rentcal/internal/infra/storage/memory"
)

const testFixtures = `{
  "units": [
    {"id": "a", "title": "Studio", "status": "active", "base_price": 100, "max_guests": 2, "min_stay_nights": 1},
    {"id": "b", "title": "Loft", "status": "active", "base_price": "150.00", "max_guests": 4, "min_stay_nights": 1},
    {"id": "x", "title": "Broken", "status": "active", "base_price": 90, "max_guests": 0}
  ],
  "groups": [{"id": "g1", "name": "Main house", "unit_ids": ["a", "b"]}],
  "price_rules": [{"unit_id": "a", "start_date": "2025-07-05", "end_date": "2025-07-06", "price": 180}],
  "closures": [{"unit_id": "b", "start_date": "2025-07-20", "end_date": "2025-07-22", "reason": "Painting"}]
}`

type testApp struct {
	router  *gin.Engine
	factory memory.Factory
	box     *memory.Outbox
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	app := buildApplication(appDeps{
		Factory:     factory,
		Outbox:      box,
		Idempotency: memory.NewIdempotencyStore(),
		MaxDays:     366,
		Location:    time.UTC,
		Now:         func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) },
		Logger:      logger,
	})

	path := filepath.Join(t.TempDir(), "units.json")
	require.NoError(t, os.WriteFile(path, []byte(testFixtures), 0o600))
	require.NoError(t, loadFixtures(context.Background(), path, factory, app.commands, logger))

	router := ginserver.NewRouter(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, app.handlers)
	return testApp{router: router, factory: factory, box: box}
}

func (a testApp) call(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestFixturesSkipInvalidUnits(t *testing.T) {
	a := newTestApp(t)
	var unitsList dto.Results[dto.Unit]
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/v1/units", nil, &unitsList))
	assert.Equal(t, 2, unitsList.Count)

	var rules dto.Results[dto.PriceRule]
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/v1/units/a/price-rules/", nil, &rules))
	assert.Equal(t, 1, rules.Count)
}

func TestFixturesMissingFileIsNotAnError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := loadFixtures(context.Background(), filepath.Join(t.TempDir(), "nope.json"), memory.NewFactory(), nil, logger)
	assert.NoError(t, err)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	a := newTestApp(t)
	var booking dto.Booking
	code := a.call(t, http.MethodPost, "/api/v1/units/a/bookings/", map[string]any{
		"check_in": "2025-07-04", "check_out": "2025-07-07", "guests": 2, "guest_name": "Lea",
	}, &booking)
	require.Equal(t, http.StatusCreated, code)
	// 100 + 180 + 180
	assert.Equal(t, "460.00", booking.Total.String())

	var check dto.RangeCheck
	require.Equal(t, http.StatusOK, a.call(t, http.MethodPost, "/api/v1/units/a/check-availability", map[string]any{
		"check_in": "2025-07-05", "check_out": "2025-07-08",
	}, &check))
	assert.False(t, check.Available)
	assert.Equal(t, "booking_conflict", check.Kind)

	var cancelled dto.Booking
	require.Equal(t, http.StatusOK, a.call(t, http.MethodPost, "/api/v1/bookings/"+booking.ID+"/cancel", map[string]any{"reason": "guest request"}, &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, http.StatusConflict, a.call(t, http.MethodPost, "/api/v1/bookings/"+booking.ID+"/cancel", nil, nil))

	require.Equal(t, http.StatusOK, a.call(t, http.MethodPost, "/api/v1/units/a/check-availability", map[string]any{
		"check_in": "2025-07-05", "check_out": "2025-07-08",
	}, &check))
	assert.True(t, check.Available)

	names := make([]string, 0)
	for _, rec := range a.box.Published() {
		names = append(names, rec.Name)
	}
	assert.Contains(t, names, "booking.created")
	assert.Contains(t, names, "booking.cancelled")
}

func TestCombinationSearchAndCombinedCalendar(t *testing.T) {
	a := newTestApp(t)
	var result combinationsapp.SearchResult
	require.Equal(t, http.StatusOK, a.call(t, http.MethodPost, "/api/v1/combinations/search", map[string]any{
		"group_id": "g1", "check_in": "2025-07-10", "check_out": "2025-07-12", "guests": 5,
	}, &result))
	require.Len(t, result.Combinations, 1)
	assert.Equal(t, 2, result.Nights)

	// the closure on b blocks the only combination that fits five guests
	require.Equal(t, http.StatusOK, a.call(t, http.MethodPost, "/api/v1/combinations/search", map[string]any{
		"group_id": "g1", "check_in": "2025-07-20", "check_out": "2025-07-22", "guests": 5,
	}, &result))
	assert.Empty(t, result.Combinations)

	var combined overview.Combined
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/v1/calendar/combined?start=2025-07-19&end=2025-07-21", nil, &combined))
	require.Len(t, combined.Days, 3)
	assert.False(t, combined.Days[0].IsBlocked)
	assert.True(t, combined.Days[1].IsBlocked)
}

func TestAdminBulkPricesAndGlobalCalendar(t *testing.T) {
	a := newTestApp(t)
	var bulk rulesapp.BulkCreateResult
	require.Equal(t, http.StatusCreated, a.call(t, http.MethodPost, "/api/v1/admin/price-rules/bulk", map[string]any{
		"unit_ids": []string{"a", "b", "a"}, "start_date": "2025-08-01", "end_date": "2025-08-03", "price": 210,
	}, &bulk))
	assert.Equal(t, 2, bulk.Count)

	var global overview.Global
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/v1/admin/calendar?start=2025-08-01&end=2025-08-02", nil, &global))
	assert.Len(t, global.Units, 2)
	assert.Len(t, global.Days, 2)

	assert.Equal(t, http.StatusNotFound, a.call(t, http.MethodPost, "/api/v1/admin/price-rules/bulk", map[string]any{
		"unit_ids": []string{"a", "ghost"}, "start_date": "2025-08-01", "end_date": "2025-08-03", "price": 210,
	}, nil))
}
