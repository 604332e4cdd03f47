package combination

import (
	"errors"
	"sort"
	"strings"

	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/pricing"
	"rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	"rentcal/internal/domain/units"
)

// MaxGroupUnits bounds subset enumeration to 2^16 candidates per group.
const MaxGroupUnits = 16

var (
	ErrInvalidGuests = errors.New("combination: guests must be at least 1")
	ErrGroupTooLarge = errors.New("combination: too many available units in group")
	ErrGroupRequired = errors.New("combination: group is required")
)

// UnitData is what the search needs to know about one unit. Check-in/check-out
// rules are deliberately absent: combination search only honours blocking.
type UnitData struct {
	Unit       *units.Unit
	PriceRules []*rules.PriceRule
	Bookings   []*booking.Booking
	Closures   []*rules.ClosureRule
}

// Allocation is one unit's share of a combination.
type Allocation struct {
	UnitID        units.UnitID `json:"unit_id"`
	Title         string       `json:"title"`
	Guests        int          `json:"guests"`
	MaxGuests     int          `json:"max_guests"`
	Nights        int          `json:"nights"`
	NightlyTotal  money.Money  `json:"nightly_total"`
	ExtraGuestFee money.Money  `json:"extra_guest_fee"`
	Subtotal      money.Money  `json:"subtotal"`
	CleaningFee   money.Money  `json:"cleaning_fee"`
	Total         money.Money  `json:"total"`
}

type Combination struct {
	GroupID      units.GroupID   `json:"group_id"`
	GroupName    string          `json:"group_name"`
	Stay         daterange.Range `json:"stay"`
	TotalGuests  int             `json:"total_guests"`
	Capacity     int             `json:"capacity"`
	Units        []Allocation    `json:"units"`
	Subtotal     money.Money     `json:"subtotal"`
	CleaningFees money.Money     `json:"cleaning_fees"`
	Total        money.Money     `json:"total"`
}

func (c Combination) key() string {
	ids := make([]string, len(c.Units))
	for i, a := range c.Units {
		ids[i] = string(a.UnitID)
	}
	return string(c.GroupID) + "|" + strings.Join(ids, ",")
}

// FindCombinations returns every subset of the group's active units that is free
// for the whole stay, can host guests, and gives each unit at least one guest.
// Results are ordered by total, then by number of units.
func FindCombinations(group *units.Group, data map[units.UnitID]UnitData, stay daterange.Range, guests int) ([]Combination, error) {
	if group == nil {
		return nil, ErrGroupRequired
	}
	if guests < 1 {
		return nil, ErrInvalidGuests
	}
	if err := stay.Validate(); err != nil {
		return nil, err
	}
	candidates := make([]UnitData, 0, len(group.UnitIDs))
	for _, id := range group.UnitIDs {
		d, ok := data[id]
		if !ok || !d.Unit.IsActive() || d.Unit.ID != id {
			continue
		}
		if !availability.IsRangeFree(d.Unit, stay, d.Bookings, d.Closures) {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) > MaxGroupUnits {
		return nil, ErrGroupTooLarge
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Unit.ID < candidates[j].Unit.ID })

	resolvers := make([]*pricing.Resolver, len(candidates))
	for i, d := range candidates {
		resolvers[i] = pricing.NewResolver(d.Unit, d.PriceRules)
	}

	var out []Combination
	for mask := 1; mask < 1<<len(candidates); mask++ {
		var subset []int
		capacity := 0
		for i := range candidates {
			if mask&(1<<i) != 0 {
				subset = append(subset, i)
				capacity += candidates[i].Unit.MaxGuests
			}
		}
		if capacity < guests {
			continue
		}
		split, ok := assignGuests(candidates, subset, guests)
		if !ok {
			continue
		}
		combo := Combination{GroupID: group.ID, GroupName: group.Name, Stay: stay, TotalGuests: guests, Capacity: capacity}
		priced := true
		for _, i := range subset {
			q, err := resolvers[i].Quote(stay, split[i])
			if err != nil {
				priced = false
				break
			}
			u := candidates[i].Unit
			combo.Units = append(combo.Units, Allocation{
				UnitID:        u.ID,
				Title:         u.Title,
				Guests:        split[i],
				MaxGuests:     u.MaxGuests,
				Nights:        q.Nights,
				NightlyTotal:  q.Accommodation,
				ExtraGuestFee: q.ExtraGuestFee,
				Subtotal:      q.Subtotal,
				CleaningFee:   q.CleaningFee,
				Total:         q.Total,
			})
			combo.Subtotal = combo.Subtotal.Add(q.Subtotal)
			combo.CleaningFees = combo.CleaningFees.Add(q.CleaningFee)
		}
		if !priced {
			continue
		}
		combo.Total = combo.Subtotal.Add(combo.CleaningFees)
		out = append(out, combo)
	}
	Sort(out)
	return out, nil
}

// assignGuests fills units by descending capacity (ties by id). A subset where
// some unit would receive no guest is rejected.
func assignGuests(candidates []UnitData, subset []int, guests int) (map[int]int, bool) {
	order := append([]int(nil), subset...)
	sort.SliceStable(order, func(a, b int) bool {
		ua, ub := candidates[order[a]].Unit, candidates[order[b]].Unit
		if ua.MaxGuests != ub.MaxGuests {
			return ua.MaxGuests > ub.MaxGuests
		}
		return ua.ID < ub.ID
	})
	split := make(map[int]int, len(order))
	remaining := guests
	for _, i := range order {
		if remaining <= 0 {
			return nil, false
		}
		n := candidates[i].Unit.MaxGuests
		if n > remaining {
			n = remaining
		}
		split[i] = n
		remaining -= n
	}
	return split, remaining == 0
}

// Sort orders combinations by total, unit count, then group and unit ids.
func Sort(combos []Combination) {
	sort.SliceStable(combos, func(i, j int) bool {
		a, b := combos[i], combos[j]
		if a.Total != b.Total {
			return a.Total.Less(b.Total)
		}
		if len(a.Units) != len(b.Units) {
			return len(a.Units) < len(b.Units)
		}
		return a.key() < b.key()
	})
}

// FindAcrossGroups searches every active group and merges the results.
func FindAcrossGroups(groups []*units.Group, data map[units.UnitID]UnitData, stay daterange.Range, guests int) ([]Combination, error) {
	var out []Combination
	for _, g := range groups {
		if g == nil || !g.Active {
			continue
		}
		res, err := FindCombinations(g, data, stay, guests)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	Sort(out)
	return out, nil
}
