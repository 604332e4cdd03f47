package support

import (
	"context"

	"github.com/google/uuid"

	"rentcal/internal/app/outbox"
	"rentcal/internal/app/uow"
)

// CommandDeps is shared by write handlers.
type CommandDeps struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	NewID      func() string
	Clock      Clock
}

// Begin joins the unit of work bound by the transaction middleware, or
// starts one when the handler is called directly.
func (d CommandDeps) Begin(ctx context.Context) (uow.UnitOfWork, context.Context, func() error, func(), error) {
	return uow.Write(ctx, d.UoWFactory)
}

func (d CommandDeps) ID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

// Record drains the pending events of sources into the outbox.
func (d CommandDeps) Record(ctx context.Context, sources ...outbox.Source) error {
	encoder := d.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	return outbox.Drain(ctx, d.Outbox, encoder, sources...)
}
