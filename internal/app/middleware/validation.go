package middleware

import (
	"context"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/queries"
)

type Validator interface {
	Validate(ctx context.Context, message any) error
}

// SelfChecking messages run their own cross-field checks after the validator
// has accepted the struct tags.
type SelfChecking interface {
	Check() error
}

func validate(ctx context.Context, v Validator, message any) error {
	if err := v.Validate(ctx, message); err != nil {
		return err
	}
	if sc, ok := message.(SelfChecking); ok {
		return sc.Check()
	}
	return nil
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next commands.Bus) commands.Bus {
		return CommandBusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := validate(ctx, v, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next queries.Bus) queries.Bus {
		return QueryBusFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := validate(ctx, v, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
