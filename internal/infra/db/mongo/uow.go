package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentcal/internal/app/uow"
	domainbooking "rentcal/internal/domain/booking"
	domainrules "rentcal/internal/domain/rules"
	domainunits "rentcal/internal/domain/units"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	UnitsRepo      domainunits.Repository
	GroupsRepo     domainunits.GroupRepository
	PriceRulesRepo domainrules.PriceRuleRepository
	ClosuresRepo   domainrules.ClosureRepository
	CheckInOutRepo domainrules.CheckInOutRepository
	BookingsRepo   domainbooking.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction. Read-only units skip the
// session: a session must not be used by concurrent goroutines, and calendar
// queries load several units in parallel.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	unit := &Unit{factory: f}
	if opts.ReadOnly {
		return unit, nil
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	unit.session = session
	return unit, nil
}

type Unit struct {
	factory Factory
	session mongo.Session
}

func (u *Unit) Units() domainunits.Repository                { return u.factory.UnitsRepo }
func (u *Unit) Groups() domainunits.GroupRepository          { return u.factory.GroupsRepo }
func (u *Unit) PriceRules() domainrules.PriceRuleRepository  { return u.factory.PriceRulesRepo }
func (u *Unit) Closures() domainrules.ClosureRepository      { return u.factory.ClosuresRepo }
func (u *Unit) CheckInOut() domainrules.CheckInOutRepository { return u.factory.CheckInOutRepo }
func (u *Unit) Bookings() domainbooking.Repository           { return u.factory.BookingsRepo }

func (u *Unit) Commit(ctx context.Context) error {
	if u.session == nil {
		return nil
	}
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.session == nil {
		return nil
	}
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	if u.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory = Factory{}
	_ uow.UnitOfWork = (*Unit)(nil)
)
