package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"rentcal/internal/domain/shared/events"
)

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder serializes the event struct as the payload.
type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

// Source is anything that buffers domain events, such as an aggregate
// embedding events.EventRecorder.
type Source interface {
	PendingEvents() []events.DomainEvent
	ClearEvents()
}

type headersKey struct{}

// WithHeaders attaches headers copied onto every record added under ctx.
func WithHeaders(ctx context.Context, headers map[string]string) context.Context {
	return context.WithValue(ctx, headersKey{}, headers)
}

func headersFrom(ctx context.Context) map[string]string {
	h, _ := ctx.Value(headersKey{}).(map[string]string)
	return h
}

func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	extra := headersFrom(ctx)
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if rec.Headers == nil {
			rec.Headers = map[string]string{}
		}
		for k, v := range extra {
			rec.Headers[k] = v
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Drain moves the pending events of every source into box and clears them.
func Drain(ctx context.Context, box Outbox, encoder EventEncoder, sources ...Source) error {
	var evs []events.DomainEvent
	for _, s := range sources {
		if s == nil {
			continue
		}
		evs = append(evs, s.PendingEvents()...)
	}
	if err := RecordDomainEvents(ctx, box, encoder, evs); err != nil {
		return err
	}
	for _, s := range sources {
		if s != nil {
			s.ClearEvents()
		}
	}
	return nil
}
