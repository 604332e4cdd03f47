package memory

import (
	"context"
	"errors"
	"sync"

	"rentcal/internal/app/uow"
	domainbooking "rentcal/internal/domain/booking"
	domainrules "rentcal/internal/domain/rules"
	domainunits "rentcal/internal/domain/units"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	UnitsRepo      domainunits.Repository
	GroupsRepo     domainunits.GroupRepository
	PriceRulesRepo domainrules.PriceRuleRepository
	ClosuresRepo   domainrules.ClosureRepository
	CheckInOutRepo domainrules.CheckInOutRepository
	BookingsRepo   domainbooking.Repository

	// writes serializes write units so check-then-save commands such as
	// bookings.create cannot interleave. Nil disables the lock.
	writes chan struct{}
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// NewFactory returns a factory over fresh empty repositories.
func NewFactory() Factory {
	return Factory{
		UnitsRepo:      NewUnitRepository(),
		GroupsRepo:     NewGroupRepository(),
		PriceRulesRepo: NewPriceRuleRepository(),
		ClosuresRepo:   NewClosureRepository(),
		CheckInOutRepo: NewCheckInOutRepository(),
		BookingsRepo:   NewBookingRepository(),
		writes:         make(chan struct{}, 1),
	}
}

// Begin starts a lightweight transaction boundary. Writes are visible as soon
// as a repository Save returns; write units run one at a time and read-only
// units never wait.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.UnitsRepo == nil || f.GroupsRepo == nil || f.PriceRulesRepo == nil ||
		f.ClosuresRepo == nil || f.CheckInOutRepo == nil || f.BookingsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	u := &Unit{factory: f}
	if opts.ReadOnly || f.writes == nil {
		return u, nil
	}
	select {
	case f.writes <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	u.release = sync.OnceFunc(func() { <-f.writes })
	return u, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	factory Factory
	release func()
}

func (u *Unit) finish() {
	if u.release != nil {
		u.release()
	}
}

func (u *Unit) Units() domainunits.Repository                { return u.factory.UnitsRepo }
func (u *Unit) Groups() domainunits.GroupRepository          { return u.factory.GroupsRepo }
func (u *Unit) PriceRules() domainrules.PriceRuleRepository  { return u.factory.PriceRulesRepo }
func (u *Unit) Closures() domainrules.ClosureRepository      { return u.factory.ClosuresRepo }
func (u *Unit) CheckInOut() domainrules.CheckInOutRepository { return u.factory.CheckInOutRepo }
func (u *Unit) Bookings() domainbooking.Repository           { return u.factory.BookingsRepo }
func (u *Unit) Commit(ctx context.Context) error             { u.finish(); return nil }
func (u *Unit) Rollback(ctx context.Context) error           { u.finish(); return nil }

var (
	_ uow.UoWFactory = Factory{}
	_ uow.UnitOfWork = (*Unit)(nil)
)
