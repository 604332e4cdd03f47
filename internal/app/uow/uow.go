package uow

import (
	"context"
	"errors"

	domainbooking "rentcal/internal/domain/booking"
	domainrules "rentcal/internal/domain/rules"
	domainunits "rentcal/internal/domain/units"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Units() domainunits.Repository
	Groups() domainunits.GroupRepository
	PriceRules() domainrules.PriceRuleRepository
	Closures() domainrules.ClosureRepository
	CheckInOut() domainrules.CheckInOutRepository
	Bookings() domainbooking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries. Read-only units may be shared
// by concurrent readers.
type TxOptions struct {
	ReadOnly bool
}

// TransientLabel is the error label Mongo puts on transaction errors that are
// safe to retry from the start, such as write conflicts between two bookings.
const TransientLabel = "TransientTransactionError"

// IsTransient reports whether err carries TransientLabel.
func IsTransient(err error) bool {
	var labeled interface{ HasErrorLabel(string) bool }
	return errors.As(err, &labeled) && labeled.HasErrorLabel(TransientLabel)
}
