package queries

import (
	"context"
	"errors"
	"fmt"
)

// Query is a read request. Key must be constant per type: the bus indexes
// handlers by the zero value's key.
type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// Bus answers queries. Implementations must not mutate state.
type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("queries: handler not found")
	ErrInvalidQuery    = errors.New("queries: invalid query for handler")
	ErrResultType      = errors.New("queries: result type mismatch")
	ErrNilBus          = errors.New("queries: nil bus")
)

// Ask runs query through bus and returns the handler result as R. Handlers
// returning nil produce the zero R.
func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	switch {
	case err != nil:
		return zero, err
	case res == nil:
		return zero, nil
	}
	if value, ok := res.(R); ok {
		return value, nil
	}
	return zero, fmt.Errorf("%w: %s answered %T", ErrResultType, query.Key(), res)
}
