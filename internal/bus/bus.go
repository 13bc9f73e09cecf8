// Package bus is the in-process change feed used by backends without a
// native notification stream (memory, sqlite without AMQP).
package bus

import (
	"context"
	"sync"

	"adminsum/internal/store"
)

// Bus fans change events out to every subscriber. Subscribe and unsubscribe
// are O(1) map operations; delivery iterates a snapshot of the registry so
// subscribers may cancel during a fan-out.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan store.Change
}

func New() *Bus {
	return &Bus{subs: make(map[int]chan store.Change)}
}

// Notify implements store.Notifier. Delivery never blocks: when a
// subscriber's buffer is full an event is dropped, which is safe because a
// re-fetch triggered by any queued event delivers the complete snapshot.
// Sends happen under the lock so an unsubscribing consumer can never close a
// channel with a send in flight.
func (b *Bus) Notify(_ context.Context, c store.Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}

// Changes implements store.Feed. The subscription lives until ctx is
// canceled; the error channel never delivers since an in-process feed has
// no connection to lose.
func (b *Bus) Changes(ctx context.Context) (<-chan store.Change, <-chan error, error) {
	ch := make(chan store.Change, 16)
	errs := make(chan error)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		// Close under the lock: once the entry is gone no Notify can hold
		// a reference, so the close cannot race a send.
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, errs, nil
}
