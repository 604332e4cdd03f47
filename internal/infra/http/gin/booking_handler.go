package ginserver

import (
	"errors"
	"io"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	bookingsapp "rentcal/internal/app/handlers/bookings"
	"rentcal/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h BookingHandler) List(c *gin.Context) {
	q := bookingsapp.ListBookingsQuery{UnitID: c.Param("id"), Status: c.Query("status")}
	result, err := queries.Ask[bookingsapp.ListBookingsQuery, []dto.Booking](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewResults(result))
}

func (h BookingHandler) Create(c *gin.Context) {
	var cmd bookingsapp.CreateBookingCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, err)
		return
	}
	cmd.UnitID = c.Param("id")
	cmd.IdempotencyKeyV = idempotencyKey(c)
	result, err := commands.Dispatch[bookingsapp.CreateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	var req cancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	cmd := bookingsapp.CancelBookingCommand{BookingID: c.Param("id"), Reason: req.Reason}
	result, err := commands.Dispatch[bookingsapp.CancelBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
