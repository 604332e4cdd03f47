package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	combinationsapp "rentcal/internal/app/handlers/combinations"
	handlersupport "rentcal/internal/app/handlers/support"
	"rentcal/internal/app/validation"
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/combination"
	"rentcal/internal/domain/overview"
	"rentcal/internal/domain/pricing"
	"rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

var badRequestErrors = []error{
	validation.ErrInvalid,
	handlersupport.ErrWindowTooLarge,
	daterange.ErrInvalidDate,
	daterange.ErrInvalidRange,
	money.ErrInvalidAmount,
	money.ErrNegative,
	rules.ErrUnitRequired,
	rules.ErrDatesRequired,
	rules.ErrEndBeforeStart,
	rules.ErrEmptyClosure,
	rules.ErrPriceRequired,
	rules.ErrNegativePrice,
	rules.ErrNegativeMinNights,
	rules.ErrRuleType,
	rules.ErrRecurrence,
	rules.ErrRecurrenceFields,
	rules.ErrDayOfWeek,
	booking.ErrInvalidGuests,
	booking.ErrGuestsBreakdown,
	booking.ErrInvalidStatus,
	booking.ErrUnitRequired,
	pricing.ErrInvalidGuests,
	pricing.ErrTooManyGuests,
	combination.ErrInvalidGuests,
	combination.ErrGroupTooLarge,
	overview.ErrBadHeader,
	overview.ErrNoUnits,
}

var notFoundErrors = []error{
	units.ErrNotFound,
	units.ErrGroupNotFound,
	rules.ErrNotFound,
	booking.ErrBookingNotFound,
	combinationsapp.ErrNoActiveGroups,
}

var conflictErrors = []error{
	availability.ErrUnavailable,
	booking.ErrInvalidState,
	units.ErrInvalidState,
}

func statusFor(err error) int {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind,omitempty"`
	Date   *daterange.Date   `json:"date,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	if ce, ok := availability.AsConflict(err); ok {
		body.Kind = string(ce.Kind)
		if !ce.Date.IsZero() {
			d := ce.Date
			body.Date = &d
		}
	}
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		body.Fields = make(map[string]string, len(verrs))
		for _, v := range verrs {
			body.Fields[v.Field] = v.Message
		}
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		body.Error = "internal error"
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: err.Error()})
}
