package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentcal/internal/app/dto"
	calendarapp "rentcal/internal/app/handlers/calendar"
	unitsapp "rentcal/internal/app/handlers/units"
	"rentcal/internal/app/queries"
	"rentcal/internal/domain/shared/daterange"
)

type UnitHandler struct {
	Queries queries.Bus
}

func (h UnitHandler) List(c *gin.Context) {
	q := unitsapp.ListUnitsQuery{Status: c.Query("status")}
	result, err := queries.Ask[unitsapp.ListUnitsQuery, []dto.Unit](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewResults(result))
}

func (h UnitHandler) Groups(c *gin.Context) {
	q := unitsapp.ListGroupsQuery{ActiveOnly: queryBool(c, "active_only")}
	result, err := queries.Ask[unitsapp.ListGroupsQuery, []dto.Group](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewResults(result))
}

func (h UnitHandler) Calendar(c *gin.Context) {
	start, end, err := queryWindow(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	q := calendarapp.GetCalendarQuery{
		UnitID:          c.Param("id"),
		Start:           start,
		End:             end,
		IncludeBookings: queryBool(c, "include_bookings"),
	}
	result, err := queries.Ask[calendarapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h UnitHandler) Price(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		badRequest(c, err)
		return
	}
	q := calendarapp.GetPriceQuery{UnitID: c.Param("id"), Date: date}
	result, err := queries.Ask[calendarapp.GetPriceQuery, dto.Price](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type stayRequest struct {
	CheckIn  daterange.Date `json:"check_in"`
	CheckOut daterange.Date `json:"check_out"`
	Guests   int            `json:"guests"`
}

func (h UnitHandler) CheckAvailability(c *gin.Context) {
	var req stayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q := calendarapp.CheckAvailabilityQuery{UnitID: c.Param("id"), CheckIn: req.CheckIn, CheckOut: req.CheckOut}
	result, err := queries.Ask[calendarapp.CheckAvailabilityQuery, dto.RangeCheck](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h UnitHandler) Quote(c *gin.Context) {
	var req stayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Guests == 0 {
		req.Guests = 1
	}
	q := calendarapp.GetQuoteQuery{UnitID: c.Param("id"), CheckIn: req.CheckIn, CheckOut: req.CheckOut, Guests: req.Guests}
	result, err := queries.Ask[calendarapp.GetQuoteQuery, calendarapp.QuoteResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ UnitHTTP = UnitHandler{}
