package middleware

import (
	"context"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/uow"
)

// maxTxAttempts bounds retries of transactions aborted by transient conflicts.
const maxTxAttempts = 3

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs every command inside a fresh unit of work, committing only
// when the handler succeeds. A transient abort restarts the whole command.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return CommandBusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			var (
				res any
				err error
			)
			for attempt := 1; attempt <= maxTxAttempts; attempt++ {
				res, err = runInUnit(ctx, factory, opts, next, cmd)
				if err == nil || !uow.IsTransient(err) || ctx.Err() != nil {
					break
				}
			}
			return res, err
		})
	}
}

func runInUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions, next commands.Bus, cmd commands.Command) (any, error) {
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	execCtx := uow.Bind(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(context.WithoutCancel(execCtx))
		}
	}()

	res, err := next.Dispatch(execCtx, cmd)
	if err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}
