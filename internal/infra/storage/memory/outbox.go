package memory

import (
	"context"
	"sync"

	appoutbox "rentcal/internal/app/outbox"
)

// publishedLimit bounds the published list of a long running memory profile.
const publishedLimit = 1000

// Outbox keeps pending events in memory. Flush moves them to the published
// list, which tests and the local profile read back; only the newest
// publishedLimit records are kept.
type Outbox struct {
	mu        sync.Mutex
	pending   []appoutbox.EventRecord
	published []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.published = append(o.published, o.pending...)
	o.pending = nil
	if over := len(o.published) - publishedLimit; over > 0 {
		o.published = append([]appoutbox.EventRecord(nil), o.published[over:]...)
	}
	return nil
}

// Published returns a copy of every flushed record.
func (o *Outbox) Published() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, len(o.published))
	copy(out, o.published)
	return out
}

var _ appoutbox.Outbox = (*Outbox)(nil)
