package combinations

import (
	"context"

	handlersupport "rentcal/internal/app/handlers/support"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/uow"
	"rentcal/internal/domain/combination"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

const searchKey = "combinations.search"

// SearchQuery looks in one group, or in every active group when GroupID is empty.
type SearchQuery struct {
	GroupID  string         `json:"group_id"`
	CheckIn  daterange.Date `json:"check_in" validate:"required"`
	CheckOut daterange.Date `json:"check_out" validate:"required"`
	Guests   int            `json:"guests" validate:"min=1"`
}

func (q SearchQuery) Key() string { return searchKey }

type SearchResult struct {
	CheckIn      daterange.Date            `json:"check_in"`
	CheckOut     daterange.Date            `json:"check_out"`
	Nights       int                       `json:"nights"`
	Guests       int                       `json:"guests"`
	Combinations []combination.Combination `json:"combinations"`
}

type SearchHandler struct {
	UoWFactory  uow.UoWFactory
	Parallelism int
}

func (h *SearchHandler) Handle(ctx context.Context, q SearchQuery) (SearchResult, error) {
	stay, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return SearchResult{}, err
	}
	unit, execCtx, cleanup, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return SearchResult{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	var groups []*units.Group
	if q.GroupID != "" {
		g, err := unit.Groups().ByID(execCtx, units.GroupID(q.GroupID))
		if err != nil {
			return SearchResult{}, err
		}
		groups = []*units.Group{g}
	} else if groups, err = unit.Groups().List(execCtx); err != nil {
		return SearchResult{}, err
	}

	members, err := handlersupport.UnitsByID(execCtx, unit, memberIDs(groups))
	if err != nil {
		return SearchResult{}, err
	}
	loaded, err := handlersupport.LoadMany(execCtx, unit, members, &stay, h.Parallelism)
	if err != nil {
		return SearchResult{}, err
	}
	data := make(map[units.UnitID]combination.UnitData, len(loaded))
	for id, in := range loaded {
		data[id] = combination.UnitData{
			Unit:       in.Unit,
			PriceRules: in.Inputs.PriceRules,
			Bookings:   in.Inputs.Bookings,
			Closures:   in.Inputs.Closures,
		}
	}

	var found []combination.Combination
	if q.GroupID != "" {
		found, err = combination.FindCombinations(groups[0], data, stay, q.Guests)
	} else {
		found, err = combination.FindAcrossGroups(groups, data, stay, q.Guests)
	}
	if err != nil {
		return SearchResult{}, err
	}
	if found == nil {
		found = []combination.Combination{}
	}
	return SearchResult{CheckIn: stay.Start, CheckOut: stay.End, Nights: stay.Nights(), Guests: q.Guests, Combinations: found}, nil
}

func memberIDs(groups []*units.Group) []units.UnitID {
	seen := map[units.UnitID]struct{}{}
	var ids []units.UnitID
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, id := range g.UnitIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

var _ queries.Handler[SearchQuery, SearchResult] = (*SearchHandler)(nil)
