package rules

import (
	"fmt"
	"strings"
	"time"

	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

type NewClosureParams struct {
	ID       RuleID
	UnitID   units.UnitID
	Start    daterange.Date
	End      daterange.Date
	Reason   string
	External bool
	Calendar string
	Now      time.Time
}

func NewClosure(p NewClosureParams) (*ClosureRule, error) {
	if strings.TrimSpace(string(p.UnitID)) == "" {
		return nil, ErrUnitRequired
	}
	if p.Start.IsZero() || p.End.IsZero() {
		return nil, ErrDatesRequired
	}
	if !p.End.After(p.Start) {
		return nil, ErrEmptyClosure
	}
	c := &ClosureRule{
		ID:        p.ID,
		UnitID:    p.UnitID,
		Start:     p.Start,
		End:       p.End,
		Reason:    strings.TrimSpace(p.Reason),
		External:  p.External,
		Calendar:  strings.TrimSpace(p.Calendar),
		CreatedAt: nowUTC(p.Now),
	}
	c.Record(ClosureCreatedEvent{
		RuleID: c.ID, UnitID: c.UnitID, Start: c.Start, End: c.End,
		Reason: c.Reason, External: c.External, At: c.CreatedAt,
	})
	return c, nil
}

// SyncedReason formats the reason stored on closures imported from an external calendar.
func SyncedReason(calendar, provider string) string {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		provider = "OTA"
	}
	calendar = strings.TrimSpace(calendar)
	if calendar == "" {
		return fmt.Sprintf("Synced from %s", provider)
	}
	return fmt.Sprintf("[%s] Synced from %s", calendar, provider)
}

// Range returns the blocked nights; ok is false for malformed closures.
func (c *ClosureRule) Range() (daterange.Range, bool) {
	if c == nil {
		return daterange.Range{}, false
	}
	r, err := daterange.New(c.Start, c.End)
	if err != nil {
		return daterange.Range{}, false
	}
	return r, true
}

func (c *ClosureRule) Blocks(d daterange.Date) bool {
	r, ok := c.Range()
	return ok && r.ContainsDate(d)
}
