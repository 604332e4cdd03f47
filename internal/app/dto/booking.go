package dto

import (
	"time"

	domainbooking "rentcal/internal/domain/booking"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
)

type Booking struct {
	ID        string         `json:"id"`
	UnitID    string         `json:"unit_id"`
	GuestName string         `json:"guest_name"`
	CheckIn   daterange.Date `json:"check_in"`
	CheckOut  daterange.Date `json:"check_out"`
	Nights    int            `json:"nights"`
	Guests    int            `json:"guests"`
	Adults    int            `json:"adults"`
	Children  int            `json:"children"`
	Status    string         `json:"status"`
	Total     money.Money    `json:"total_price"`
	CreatedAt time.Time      `json:"created_at"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	return Booking{
		ID: string(b.ID), UnitID: string(b.UnitID), GuestName: b.GuestName,
		CheckIn: b.Stay.Start, CheckOut: b.Stay.End, Nights: b.Stay.Nights(),
		Guests: b.Guests, Adults: b.Adults, Children: b.Children,
		Status: string(b.Status), Total: b.Price.Total, CreatedAt: b.CreatedAt,
	}
}

func MapBookings(in []*domainbooking.Booking) []Booking {
	out := make([]Booking, 0, len(in))
	for _, b := range in {
		if b != nil {
			out = append(out, MapBooking(b))
		}
	}
	return out
}
