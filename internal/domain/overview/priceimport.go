package overview

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

var ErrBadHeader = errors.New("overview: csv header must contain date and price columns")

type DayPrice struct {
	Date  daterange.Date
	Price money.Money
}

type ImportError struct {
	Line  int    `json:"line,omitempty"`
	Date  string `json:"date,omitempty"`
	Error string `json:"error"`
}

// ParsePriceCSV reads "date,price" rows. Rows with an empty cell are ignored;
// unparsable rows are reported and skipped. A later row for the same date wins.
func ParsePriceCSV(r io.Reader) ([]DayPrice, []ImportError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrBadHeader
		}
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	dateCol, priceCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "date":
			dateCol = i
		case "price":
			priceCol = i
		}
	}
	if dateCol < 0 || priceCol < 0 {
		return nil, nil, ErrBadHeader
	}

	byDate := map[daterange.Date]money.Money{}
	var problems []ImportError
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			problems = append(problems, ImportError{Line: line, Error: err.Error()})
			continue
		}
		if dateCol >= len(rec) || priceCol >= len(rec) {
			continue
		}
		rawDate, rawPrice := strings.TrimSpace(rec[dateCol]), strings.TrimSpace(rec[priceCol])
		if rawDate == "" || rawPrice == "" {
			continue
		}
		d, err := daterange.ParseDate(rawDate)
		if err != nil {
			problems = append(problems, ImportError{Line: line, Date: rawDate, Error: err.Error()})
			continue
		}
		price, err := money.Parse(rawPrice)
		if err != nil {
			problems = append(problems, ImportError{Line: line, Date: rawDate, Error: err.Error()})
			continue
		}
		if price.IsNegative() {
			problems = append(problems, ImportError{Line: line, Date: rawDate, Error: rules.ErrNegativePrice.Error()})
			continue
		}
		byDate[d] = price
	}
	out := make([]DayPrice, 0, len(byDate))
	for d, p := range byDate {
		out = append(out, DayPrice{Date: d, Price: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, problems, nil
}

// ImportPlan is the outcome of matching imported prices against existing rules.
type ImportPlan struct {
	Create  []*rules.PriceRule
	Update  []*rules.PriceRule
	Skipped int
	Errors  []ImportError
}

type ImportParams struct {
	UnitID    units.UnitID
	Prices    []DayPrice
	Existing  []*rules.PriceRule
	Overwrite bool
	NewID     func() rules.RuleID
	Now       time.Time
}

// PlanPriceImport turns each day price into a single-day rule. A day that
// already has a single-day rule is updated when Overwrite is set and skipped otherwise.
func PlanPriceImport(p ImportParams) ImportPlan {
	single := map[daterange.Date]*rules.PriceRule{}
	for _, r := range p.Existing {
		if r == nil || r.UnitID != p.UnitID || r.Start.IsZero() || r.Start != r.End {
			continue
		}
		if _, ok := single[r.Start]; !ok {
			single[r.Start] = r
		}
	}
	var plan ImportPlan
	for _, dp := range p.Prices {
		if existing, ok := single[dp.Date]; ok {
			if !p.Overwrite {
				plan.Skipped++
				continue
			}
			if err := existing.SetPrice(dp.Price, p.Now); err != nil {
				plan.Errors = append(plan.Errors, ImportError{Date: dp.Date.String(), Error: err.Error()})
				continue
			}
			plan.Update = append(plan.Update, existing)
			continue
		}
		var id rules.RuleID
		if p.NewID != nil {
			id = p.NewID()
		}
		price := dp.Price
		rule, err := rules.NewPriceRule(rules.NewPriceRuleParams{
			ID: id, UnitID: p.UnitID, Start: dp.Date, End: dp.Date, Price: &price, Now: p.Now,
		})
		if err != nil {
			plan.Errors = append(plan.Errors, ImportError{Date: dp.Date.String(), Error: err.Error()})
			continue
		}
		plan.Create = append(plan.Create, rule)
	}
	return plan
}
