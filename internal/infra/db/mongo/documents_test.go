package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "rentcal/internal/domain/booking"
	"rentcal/internal/domain/shared/daterange"
)

func TestParseDateToleratesGarbage(t *testing.T) {
	assert.True(t, parseDate("").IsZero())
	assert.True(t, parseDate("31/12/2025").IsZero())
	assert.Equal(t, daterange.MustParse("2025-12-31"), parseDate("2025-12-31"))
	assert.Equal(t, "", dateString(daterange.Date{}))
}

func TestPriceRuleDocumentKeepsMissingPrice(t *testing.T) {
	rule, err := priceRuleDocument{ID: "p1", UnitID: "u1", StartDate: "2025-07-01", EndDate: "bad"}.toAggregate()
	require.NoError(t, err)
	assert.Nil(t, rule.Price)
	assert.True(t, rule.End.IsZero())
	assert.False(t, rule.Usable())
}

func TestBookingDocumentRejectsBrokenRange(t *testing.T) {
	_, err := bookingDocument{ID: "b1", UnitID: "u1", Status: "pending", Range: rangeDocument{CheckIn: "2025-07-05", CheckOut: "2025-07-01"}}.toAggregate()
	assert.Error(t, err)

	b, err := bookingDocument{
		ID: "b1", UnitID: "u1", Status: "confirmed", Guests: 2,
		Range: rangeDocument{CheckIn: "2025-07-01", CheckOut: "2025-07-03"},
		Price: quoteDocument{Total: 25000, CleaningFee: 5000},
	}.toAggregate()
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, b.Status)
	assert.Equal(t, 2, b.Price.Nights)
	assert.Len(t, b.Price.Fees, 1)
}

func TestCheckInOutDocumentWeekday(t *testing.T) {
	day := 5
	rule, err := checkInOutDocument{ID: "c1", UnitID: "u1", RuleType: "no_checkin", Recurrence: "weekly", DayOfWeek: &day}.toAggregate()
	require.NoError(t, err)
	assert.Nil(t, rule.SpecificDate)
	// 2025-07-05 is a Saturday, index 5 with Monday as 0
	assert.True(t, rule.ForbidsCheckIn(daterange.MustParse("2025-07-05")))
}
