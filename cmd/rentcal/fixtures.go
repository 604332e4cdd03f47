package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	rulesapp "rentcal/internal/app/handlers/rules"
	"rentcal/internal/app/uow"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

type fixtureFile struct {
	Units      []unitFixture                     `json:"units"`
	Groups     []groupFixture                    `json:"groups"`
	PriceRules []rulesapp.CreatePriceRuleCommand `json:"price_rules"`
	Closures   []rulesapp.CreateClosureCommand   `json:"closures"`
}

type unitFixture struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Status            string         `json:"status"`
	BasePrice         money.Money    `json:"base_price"`
	CleaningFee       money.Money    `json:"cleaning_fee"`
	ExtraGuestFee     money.Money    `json:"extra_guest_fee"`
	MaxGuests         int            `json:"max_guests"`
	IncludedGuests    int            `json:"included_guests"`
	Bedrooms          int            `json:"bedrooms"`
	Bathrooms         float64        `json:"bathrooms"`
	MinStayNights     int            `json:"min_stay_nights"`
	GapDays           int            `json:"gap_between_bookings"`
	MinBookingAdvance int            `json:"min_booking_advance"`
	MaxBookingAdvance int            `json:"max_booking_advance"`
	AvailableFrom     daterange.Date `json:"available_from"`
	Color             string         `json:"color"`
}

type groupFixture struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	UnitIDs []string `json:"unit_ids"`
	Active  *bool    `json:"active"`
}

// loadFixtures seeds units and groups directly and replays rules through the
// command bus so they get the same validation as API writes.
func loadFixtures(ctx context.Context, path string, factory uow.UoWFactory, bus commands.Bus, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("fixtures file empty", "path", path)
		return nil
	}
	var fx fixtureFile
	if err := json.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	unit, txCtx, commit, cleanup, err := uow.Write(ctx, factory)
	if err != nil {
		return err
	}
	defer cleanup()
	now := time.Now()
	for _, f := range fx.Units {
		u, err := units.NewUnit(units.CreateUnitParams{
			ID:                units.UnitID(f.ID),
			Title:             f.Title,
			Status:            units.Status(f.Status),
			BasePrice:         f.BasePrice,
			CleaningFee:       f.CleaningFee,
			ExtraGuestFee:     f.ExtraGuestFee,
			MaxGuests:         f.MaxGuests,
			IncludedGuests:    f.IncludedGuests,
			Bedrooms:          f.Bedrooms,
			Bathrooms:         f.Bathrooms,
			MinStayNights:     f.MinStayNights,
			GapDays:           f.GapDays,
			MinBookingAdvance: f.MinBookingAdvance,
			MaxBookingAdvance: f.MaxBookingAdvance,
			AvailableFrom:     f.AvailableFrom,
			Color:             f.Color,
			Now:               now,
		})
		if err != nil {
			logger.Error("fixture unit invalid", "unit_id", f.ID, "error", err)
			continue
		}
		if err := unit.Units().Save(txCtx, u); err != nil {
			return fmt.Errorf("save unit %s: %w", f.ID, err)
		}
	}
	for _, f := range fx.Groups {
		members := make([]units.UnitID, 0, len(f.UnitIDs))
		for _, id := range f.UnitIDs {
			members = append(members, units.UnitID(id))
		}
		g, err := units.NewGroup(units.GroupID(f.ID), f.Name, members)
		if err != nil {
			logger.Error("fixture group invalid", "group_id", f.ID, "error", err)
			continue
		}
		if f.Active != nil {
			g.Active = *f.Active
		}
		if err := unit.Groups().Save(txCtx, g); err != nil {
			return fmt.Errorf("save group %s: %w", f.ID, err)
		}
	}
	if err := commit(); err != nil {
		return err
	}

	for _, cmd := range fx.PriceRules {
		if _, err := commands.Dispatch[rulesapp.CreatePriceRuleCommand, *dto.PriceRule](ctx, bus, cmd); err != nil {
			logger.Error("fixture price rule rejected", "unit_id", cmd.UnitID, "error", err)
		}
	}
	for _, cmd := range fx.Closures {
		if _, err := commands.Dispatch[rulesapp.CreateClosureCommand, *dto.ClosureRule](ctx, bus, cmd); err != nil {
			logger.Error("fixture closure rejected", "unit_id", cmd.UnitID, "error", err)
		}
	}
	logger.Info("fixtures imported", "path", path, "units", len(fx.Units), "groups", len(fx.Groups),
		"price_rules", len(fx.PriceRules), "closures", len(fx.Closures))
	return nil
}

func defaultFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "units.json"),
		filepath.Join("..", "..", "data", "units.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
