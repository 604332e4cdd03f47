package dto

import (
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

// Results is the list envelope used by every collection endpoint.
type Results[T any] struct {
	Results []T `json:"results"`
	Count   int `json:"count"`
}

func NewResults[T any](items []T) Results[T] {
	if items == nil {
		items = []T{}
	}
	return Results[T]{Results: items, Count: len(items)}
}

type Unit struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Status            string          `json:"status"`
	BasePrice         money.Money     `json:"base_price"`
	CleaningFee       money.Money     `json:"cleaning_fee"`
	ExtraGuestFee     money.Money     `json:"extra_guest_fee"`
	MaxGuests         int             `json:"max_guests"`
	IncludedGuests    int             `json:"included_guests"`
	Bedrooms          int             `json:"bedrooms"`
	Bathrooms         float64         `json:"bathrooms"`
	MinStayNights     int             `json:"min_stay_nights"`
	GapDays           int             `json:"gap_between_bookings"`
	MinBookingAdvance int             `json:"min_booking_advance"`
	MaxBookingAdvance int             `json:"max_booking_advance"`
	AvailableFrom     *daterange.Date `json:"available_from,omitempty"`
	Color             string          `json:"color,omitempty"`
}

func MapUnit(u *units.Unit) Unit {
	out := Unit{
		ID:                string(u.ID),
		Title:             u.Title,
		Status:            string(u.Status),
		BasePrice:         u.BasePrice,
		CleaningFee:       u.CleaningFee,
		ExtraGuestFee:     u.ExtraGuestFee,
		MaxGuests:         u.MaxGuests,
		IncludedGuests:    u.IncludedGuests,
		Bedrooms:          u.Bedrooms,
		Bathrooms:         u.Bathrooms,
		MinStayNights:     u.MinStay(),
		GapDays:           u.GapDays,
		MinBookingAdvance: u.MinBookingAdvance,
		MaxBookingAdvance: u.MaxBookingAdvance,
		Color:             u.Color,
	}
	if !u.AvailableFrom.IsZero() {
		d := u.AvailableFrom
		out.AvailableFrom = &d
	}
	return out
}

type Group struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Active   bool     `json:"is_active"`
	UnitIDs  []string `json:"units"`
	Capacity int      `json:"total_capacity"`
}

// MapGroup fills Capacity from the members found in byID.
func MapGroup(g *units.Group, byID map[units.UnitID]*units.Unit) Group {
	out := Group{ID: string(g.ID), Name: g.Name, Active: g.Active, UnitIDs: make([]string, 0, len(g.UnitIDs))}
	for _, id := range g.UnitIDs {
		out.UnitIDs = append(out.UnitIDs, string(id))
		if u, ok := byID[id]; ok && u.IsActive() {
			out.Capacity += u.MaxGuests
		}
	}
	return out
}
