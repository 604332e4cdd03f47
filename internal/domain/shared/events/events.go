// Package events is the minimal event kernel shared by the calendar aggregates.
package events

import "time"

// DomainEvent is a fact about one aggregate. AggregateID doubles as the
// broker partition key.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by aggregates; the application layer drains it
// into the outbox after a successful save.
type EventRecorder struct {
	pending []DomainEvent
}

// Record buffers evs, ignoring nil entries.
func (r *EventRecorder) Record(evs ...DomainEvent) {
	for _, ev := range evs {
		if ev != nil {
			r.pending = append(r.pending, ev)
		}
	}
}

// PendingEvents returns a copy of the buffer.
func (r *EventRecorder) PendingEvents() []DomainEvent {
	if len(r.pending) == 0 {
		return nil
	}
	return append([]DomainEvent(nil), r.pending...)
}

func (r *EventRecorder) ClearEvents() { r.pending = nil }
