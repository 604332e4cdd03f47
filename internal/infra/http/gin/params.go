package ginserver

import (
	"fmt"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentcal/internal/domain/shared/daterange"
)

func queryDate(c *gin.Context, name string) (daterange.Date, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return daterange.Date{}, fmt.Errorf("query parameter %q is required", name)
	}
	d, err := daterange.ParseDate(raw)
	if err != nil {
		return daterange.Date{}, fmt.Errorf("query parameter %q: %w", name, err)
	}
	return d, nil
}

func queryWindow(c *gin.Context) (daterange.Date, daterange.Date, error) {
	start, err := queryDate(c, "start")
	if err != nil {
		return daterange.Date{}, daterange.Date{}, err
	}
	end, err := queryDate(c, "end")
	if err != nil {
		return daterange.Date{}, daterange.Date{}, err
	}
	return start, end, nil
}

func queryBool(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}

// idempotencyKey is empty when the client sent none; such commands are never replayed.
func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("Idempotency-Key"))
}
