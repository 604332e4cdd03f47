package memory

import (
	"context"
	"sync"
)

// Inbox remembers claimed message ids for the lifetime of the process.
type Inbox struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

func NewInbox() *Inbox {
	return &Inbox{claimed: make(map[string]struct{})}
}

func (i *Inbox) Claim(ctx context.Context, eventID string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.claimed[eventID]; ok {
		return false, nil
	}
	i.claimed[eventID] = struct{}{}
	return true, nil
}

func (i *Inbox) Release(ctx context.Context, eventID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.claimed, eventID)
	return nil
}
