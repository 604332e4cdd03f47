package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentcal/internal/app/commands"
	overviewapp "rentcal/internal/app/handlers/overview"
	rulesapp "rentcal/internal/app/handlers/rules"
	"rentcal/internal/app/queries"
	"rentcal/internal/domain/overview"
)

type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h AdminHandler) GlobalCalendar(c *gin.Context) {
	start, end, err := queryWindow(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	q := overviewapp.GlobalCalendarQuery{Start: start, End: end, ActiveOnly: queryBool(c, "active_only")}
	result, err := queries.Ask[overviewapp.GlobalCalendarQuery, *overview.Global](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) BulkPriceRules(c *gin.Context) {
	var cmd rulesapp.BulkCreatePriceRulesCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, err)
		return
	}
	cmd.IdempotencyKeyV = idempotencyKey(c)
	result, err := commands.Dispatch[rulesapp.BulkCreatePriceRulesCommand, *rulesapp.BulkCreateResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ AdminHTTP = AdminHandler{}
