package memory

import (
	"context"
	"sort"
	"sync"

	domainrules "rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	domainunits "rentcal/internal/domain/units"
)

// PriceRuleRepository stores price rules in memory.
type PriceRuleRepository struct {
	mu    sync.RWMutex
	items map[domainrules.RuleID]*domainrules.PriceRule
}

func NewPriceRuleRepository() *PriceRuleRepository {
	return &PriceRuleRepository{items: make(map[domainrules.RuleID]*domainrules.PriceRule)}
}

func (r *PriceRuleRepository) ByID(ctx context.Context, id domainrules.RuleID) (*domainrules.PriceRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.items[id]
	if !ok {
		return nil, domainrules.ErrNotFound
	}
	return clonePriceRule(rule), nil
}

// ListByUnit returns rules of unit in creation order. With a window, only
// rules whose inclusive range touches it are returned.
func (r *PriceRuleRepository) ListByUnit(ctx context.Context, unit domainunits.UnitID, window *daterange.Range) ([]*domainrules.PriceRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainrules.PriceRule, 0)
	for _, rule := range r.items {
		if rule.UnitID != unit {
			continue
		}
		if window != nil && !priceRuleTouches(rule, *window) {
			continue
		}
		out = append(out, clonePriceRule(rule))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func priceRuleTouches(rule *domainrules.PriceRule, window daterange.Range) bool {
	if rule.Start.IsZero() || rule.End.IsZero() {
		return false
	}
	return rule.Start.Before(window.End) && !rule.End.Before(window.Start)
}

func (r *PriceRuleRepository) Save(ctx context.Context, rule *domainrules.PriceRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rule.ID] = clonePriceRule(rule)
	return nil
}

func (r *PriceRuleRepository) Delete(ctx context.Context, id domainrules.RuleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainrules.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func clonePriceRule(rule *domainrules.PriceRule) *domainrules.PriceRule {
	cp := *rule
	if rule.Price != nil {
		price := *rule.Price
		cp.Price = &price
	}
	cp.ClearEvents()
	return &cp
}

// ClosureRepository stores manual and external closures.
type ClosureRepository struct {
	mu    sync.RWMutex
	items map[domainrules.RuleID]*domainrules.ClosureRule
}

func NewClosureRepository() *ClosureRepository {
	return &ClosureRepository{items: make(map[domainrules.RuleID]*domainrules.ClosureRule)}
}

func (r *ClosureRepository) ByID(ctx context.Context, id domainrules.RuleID) (*domainrules.ClosureRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.items[id]
	if !ok {
		return nil, domainrules.ErrNotFound
	}
	return cloneClosure(rule), nil
}

func (r *ClosureRepository) ListByUnit(ctx context.Context, unit domainunits.UnitID, window *daterange.Range) ([]*domainrules.ClosureRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainrules.ClosureRule, 0)
	for _, rule := range r.items {
		if rule.UnitID != unit {
			continue
		}
		if window != nil {
			rng, ok := rule.Range()
			if !ok || !rng.Overlaps(*window) {
				continue
			}
		}
		out = append(out, cloneClosure(rule))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ClosureRepository) Save(ctx context.Context, rule *domainrules.ClosureRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rule.ID] = cloneClosure(rule)
	return nil
}

func (r *ClosureRepository) Delete(ctx context.Context, id domainrules.RuleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainrules.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ClosureRepository) DeleteExternal(ctx context.Context, unit domainunits.UnitID, calendar string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, rule := range r.items {
		if rule.UnitID == unit && rule.External && rule.Calendar == calendar {
			delete(r.items, id)
			removed++
		}
	}
	return removed, nil
}

func cloneClosure(rule *domainrules.ClosureRule) *domainrules.ClosureRule {
	cp := *rule
	cp.ClearEvents()
	return &cp
}

// CheckInOutRepository stores check-in/check-out restrictions.
type CheckInOutRepository struct {
	mu    sync.RWMutex
	items map[domainrules.RuleID]*domainrules.CheckInOutRule
}

func NewCheckInOutRepository() *CheckInOutRepository {
	return &CheckInOutRepository{items: make(map[domainrules.RuleID]*domainrules.CheckInOutRule)}
}

func (r *CheckInOutRepository) ByID(ctx context.Context, id domainrules.RuleID) (*domainrules.CheckInOutRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.items[id]
	if !ok {
		return nil, domainrules.ErrNotFound
	}
	return cloneCheckInOut(rule), nil
}

func (r *CheckInOutRepository) ListByUnit(ctx context.Context, unit domainunits.UnitID) ([]*domainrules.CheckInOutRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainrules.CheckInOutRule, 0)
	for _, rule := range r.items {
		if rule.UnitID == unit {
			out = append(out, cloneCheckInOut(rule))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CheckInOutRepository) Save(ctx context.Context, rule *domainrules.CheckInOutRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rule.ID] = cloneCheckInOut(rule)
	return nil
}

func (r *CheckInOutRepository) Delete(ctx context.Context, id domainrules.RuleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainrules.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func cloneCheckInOut(rule *domainrules.CheckInOutRule) *domainrules.CheckInOutRule {
	cp := *rule
	cp.ClearEvents()
	return &cp
}

var (
	_ domainrules.PriceRuleRepository  = (*PriceRuleRepository)(nil)
	_ domainrules.ClosureRepository    = (*ClosureRepository)(nil)
	_ domainrules.CheckInOutRepository = (*CheckInOutRepository)(nil)
)
