package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

// ContextWithUnitOfWork stores the provided unit of work in context.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

// FromContext retrieves a unit of work from context if present.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(ctxKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}

// Bind returns a context carrying unit, letting the unit add its own session
// state first when it supports it.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}

// ReadOnly reuses the unit already bound to ctx or begins a read-only one.
// The returned cleanup is nil when no unit was started.
func ReadOnly(ctx context.Context, factory UoWFactory) (UnitOfWork, context.Context, func(), error) {
	if unit, ok := FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := Bind(ctx, unit)
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

// Write reuses the unit bound to ctx or begins a new one that the caller must
// finish with the returned commit. commit is a no-op for a reused unit, and
// cleanup rolls back a started unit that was never committed.
func Write(ctx context.Context, factory UoWFactory) (unit UnitOfWork, execCtx context.Context, commit func() error, cleanup func(), err error) {
	if existing, ok := FromContext(ctx); ok {
		return existing, ctx, func() error { return nil }, func() {}, nil
	}
	if factory == nil {
		return nil, ctx, nil, nil, ErrUnitOfWorkMissing
	}
	unit, err = factory.Begin(ctx, TxOptions{})
	if err != nil {
		return nil, ctx, nil, nil, err
	}
	execCtx = Bind(ctx, unit)
	committed := false
	commit = func() error {
		if err := unit.Commit(execCtx); err != nil {
			return err
		}
		committed = true
		return nil
	}
	cleanup = func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}
	return unit, execCtx, commit, cleanup, nil
}
