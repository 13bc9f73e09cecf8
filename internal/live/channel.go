// Package live bridges backend change events to application state. Every
// notification a subscriber receives is a complete re-fetched snapshot,
// never a delta, so out-of-order delivery cannot corrupt state: the last
// snapshot wins.
package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"adminsum/internal/core"
	"adminsum/internal/store"
)

// ErrConnectionLost reports a failure of the realtime feed itself, distinct
// from a single fetch failure: the UI can tell "stale but was working" from
// "never connected".
var ErrConnectionLost = errors.New("realtime connection lost")

// Status of the channel as observed by the UI.
type Status int32

const (
	StatusConnecting Status = iota
	StatusSynced
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusSynced:
		return "synced"
	case StatusError:
		return "error"
	}
	return "unknown"
}

type subscriber struct {
	mu     sync.Mutex
	closed bool
	onData func([]core.Record)
	onErr  func(error)
}

// deliver invokes onData unless the subscription was canceled. The per
// subscriber lock guarantees no callback runs after cancel returns, even for
// a fetch that was already in flight at teardown.
func (s *subscriber) deliver(records []core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.onData(records)
}

func (s *subscriber) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.onErr(err)
}

// Channel keeps subscribers in sync with a record backend. On any change
// event, regardless of which record changed, it performs a full re-fetch and
// redelivers the complete collection: correctness over efficiency.
type Channel struct {
	fetcher store.Lister
	feed    store.Feed

	status atomic.Int32

	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber

	// Last successfully fetched collection, kept while in error state so
	// callers can stay stale-but-visible.
	snapMu   sync.RWMutex
	snapshot []core.Record
}

func NewChannel(fetcher store.Lister, feed store.Feed) *Channel {
	return &Channel{
		fetcher: fetcher,
		feed:    feed,
		subs:    make(map[int]*subscriber),
	}
}

// Status returns the current connection state.
func (c *Channel) Status() Status {
	return Status(c.status.Load())
}

// Snapshot returns the last successfully delivered collection.
func (c *Channel) Snapshot() []core.Record {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snapshot
}

// Subscribe registers the callbacks, performs one immediate full fetch and
// delivers it (or its error), and returns an idempotent cancel func. Each
// subscriber receives every subsequent full-snapshot notification
// independently until canceled. ctx bounds only the initial fetch.
func (c *Channel) Subscribe(ctx context.Context, onData func([]core.Record), onErr func(error)) (cancel func()) {
	sub := &subscriber{onData: onData, onErr: onErr}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = sub
	c.mu.Unlock()

	records, err := c.fetcher.FetchAll(ctx)
	if err != nil {
		c.status.Store(int32(StatusError))
		sub.fail(err)
	} else {
		c.status.Store(int32(StatusSynced))
		c.keep(records)
		sub.deliver(records)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.mu.Lock()
			sub.closed = true
			sub.mu.Unlock()
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Run consumes the change feed until ctx is canceled or the feed fails.
// A feed failure is reported to every subscriber as ErrConnectionLost.
func (c *Channel) Run(ctx context.Context) error {
	changes, errs, err := c.feed.Changes(ctx)
	if err != nil {
		c.status.Store(int32(StatusError))
		return err
	}

	// Prime the snapshot so callers that only read Snapshot() see data
	// before the first change event arrives.
	c.refetch(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				// The feed also closes on cancellation; only an
				// unexpected close is a lost connection.
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.connectionLost(nil)
				return ErrConnectionLost
			}
			// The event payload is not trusted as authoritative; the
			// re-fetched snapshot is.
			c.refetch(ctx)
		case err, ok := <-errs:
			if !ok {
				continue
			}
			c.connectionLost(err)
			return errors.Join(ErrConnectionLost, err)
		}
	}
}

func (c *Channel) refetch(ctx context.Context) {
	records, err := c.fetcher.FetchAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Full re-fetch failed, keeping last snapshot",
			"error", err)
		c.status.Store(int32(StatusError))
		for _, sub := range c.snapshotSubs() {
			sub.fail(err)
		}
		return
	}
	c.status.Store(int32(StatusSynced))
	c.keep(records)
	for _, sub := range c.snapshotSubs() {
		sub.deliver(records)
	}
}

func (c *Channel) connectionLost(cause error) {
	slog.Error("Realtime feed failed", "error", cause)
	c.status.Store(int32(StatusError))
	for _, sub := range c.snapshotSubs() {
		sub.fail(ErrConnectionLost)
	}
}

// snapshotSubs copies the registry so fan-out never iterates a map that a
// concurrent subscribe/cancel is mutating.
func (c *Channel) snapshotSubs() []*subscriber {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*subscriber, 0, len(c.subs))
	for _, s := range c.subs {
		out = append(out, s)
	}
	return out
}

func (c *Channel) keep(records []core.Record) {
	c.snapMu.Lock()
	c.snapshot = records
	c.snapMu.Unlock()
}
