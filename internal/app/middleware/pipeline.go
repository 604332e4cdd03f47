package middleware

import (
	"context"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/queries"
)

type (
	CommandMiddleware func(next commands.Bus) commands.Bus
	QueryMiddleware   func(next queries.Bus) queries.Bus
)

// CommandBusFunc lets a plain function act as a commands.Bus.
type CommandBusFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f CommandBusFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

// QueryBusFunc lets a plain function act as a queries.Bus.
type QueryBusFunc func(ctx context.Context, q queries.Query) (any, error)

func (f QueryBusFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

// ChainCommands wraps base so that mws[0] sees every command first. Nil
// entries are skipped, which keeps optional stages inline at the call site.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	return chain(base, mws)
}

func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	return chain(base, mws)
}

func chain[B any, M ~func(B) B](base B, mws []M) B {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			base = mws[i](base)
		}
	}
	return base
}
