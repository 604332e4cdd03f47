package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	combinationsapp "rentcal/internal/app/handlers/combinations"
	"rentcal/internal/app/queries"
	"rentcal/internal/domain/overview"
)

type CombinationHandler struct {
	Queries queries.Bus
}

func (h CombinationHandler) Search(c *gin.Context) {
	var q combinationsapp.SearchQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		badRequest(c, err)
		return
	}
	result, err := queries.Ask[combinationsapp.SearchQuery, combinationsapp.SearchResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CombinationHandler) Combined(c *gin.Context) {
	start, end, err := queryWindow(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	q := combinationsapp.CombinedCalendarQuery{Start: start, End: end}
	result, err := queries.Ask[combinationsapp.CombinedCalendarQuery, *overview.Combined](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CombinationHTTP = CombinationHandler{}
