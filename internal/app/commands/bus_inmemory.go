package commands

import (
	"context"
	"fmt"

	"rentcal/internal/app/bus"
)

// InMemoryBus dispatches commands to the handler registered for their key.
type InMemoryBus struct {
	routes *bus.Registry[Command]
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: bus.NewRegistry[Command]("commands", ErrHandlerNotFound)}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	return b.routes.Route(ctx, cmd)
}

// Handles reports whether a handler is registered for key.
func (b *InMemoryBus) Handles(key string) bool { return b.routes.Has(key) }

func (b *InMemoryBus) Keys() []string { return b.routes.Keys() }

// RegisterHandler registers handler under C's key. Registering a key twice
// is a wiring bug and panics.
func RegisterHandler[C Command, R any](b *InMemoryBus, handler Handler[C, R]) {
	if b == nil {
		panic("commands: nil bus")
	}
	var zero C
	key := zero.Key()
	b.routes.Add(key, func(ctx context.Context, raw Command) (any, error) {
		cmd, ok := raw.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidCommand, key, raw)
		}
		return handler.Handle(ctx, cmd)
	})
}
