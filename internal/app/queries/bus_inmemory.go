package queries

import (
	"context"
	"fmt"

	"rentcal/internal/app/bus"
)

type InMemoryBus struct {
	routes *bus.Registry[Query]
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: bus.NewRegistry[Query]("queries", ErrHandlerNotFound)}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	return b.routes.Route(ctx, query)
}

func (b *InMemoryBus) Keys() []string { return b.routes.Keys() }

// RegisterHandler registers handler under Q's key; Q.Key must not read fields.
func RegisterHandler[Q Query, R any](b *InMemoryBus, handler Handler[Q, R]) {
	if b == nil {
		panic("queries: nil bus")
	}
	var zero Q
	key := zero.Key()
	b.routes.Add(key, func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidQuery, key, raw)
		}
		return handler.Handle(ctx, q)
	})
}
