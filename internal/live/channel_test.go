package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"adminsum/internal/bus"
	"adminsum/internal/core"
	"adminsum/internal/store"
)

type fetchStub struct {
	mu      sync.Mutex
	records []core.Record
	err     error
	calls   int
}

func (f *fetchStub) FetchAll(_ context.Context) ([]core.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]core.Record(nil), f.records...), nil
}

func (f *fetchStub) set(records []core.Record, err error) {
	f.mu.Lock()
	f.records = records
	f.err = err
	f.mu.Unlock()
}

// errFeed delivers a single fatal error.
type errFeed struct{ err error }

func (f *errFeed) Changes(_ context.Context) (<-chan store.Change, <-chan error, error) {
	ch := make(chan store.Change)
	errs := make(chan error, 1)
	errs <- f.err
	return ch, errs, nil
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	f := &fetchStub{records: []core.Record{{ID: "1", Name: "Gaji", Value: 5000000}}}
	c := NewChannel(f, bus.New())

	got := make(chan []core.Record, 1)
	cancel := c.Subscribe(context.Background(),
		func(rs []core.Record) { got <- rs },
		func(err error) { t.Errorf("unexpected error: %v", err) },
	)
	defer cancel()

	rs := waitFor(t, got, "initial snapshot")
	if len(rs) != 1 || rs[0].Name != "Gaji" {
		t.Fatalf("unexpected snapshot: %+v", rs)
	}
	if c.Status() != StatusSynced {
		t.Fatalf("status = %v, want synced", c.Status())
	}
}

func TestChangeEventTriggersFullRefetch(t *testing.T) {
	f := &fetchStub{records: []core.Record{{ID: "1", Name: "a"}}}
	b := bus.New()
	c := NewChannel(f, b)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() { _ = c.Run(ctx) }()

	got := make(chan []core.Record, 4)
	cancel := c.Subscribe(context.Background(), func(rs []core.Record) { got <- rs }, func(error) {})
	defer cancel()
	waitFor(t, got, "initial snapshot")

	// Mutate the backend, then signal a change; subscribers must see the
	// complete new collection regardless of what the event says.
	f.set([]core.Record{{ID: "2", Name: "b"}, {ID: "1", Name: "a"}}, nil)
	_ = b.Notify(context.Background(), store.Change{Op: store.OpInsert, IDs: []string{"2"}})

	for {
		rs := waitFor(t, got, "refetched snapshot")
		if len(rs) == 2 {
			if rs[0].ID != "2" {
				t.Fatalf("expected full snapshot newest first, got %+v", rs)
			}
			return
		}
	}
}

func TestMultipleSubscribersEachNotified(t *testing.T) {
	f := &fetchStub{records: []core.Record{{ID: "1"}}}
	b := bus.New()
	c := NewChannel(f, b)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() { _ = c.Run(ctx) }()

	got1 := make(chan []core.Record, 4)
	got2 := make(chan []core.Record, 4)
	cancel1 := c.Subscribe(context.Background(), func(rs []core.Record) { got1 <- rs }, func(error) {})
	defer cancel1()
	cancel2 := c.Subscribe(context.Background(), func(rs []core.Record) { got2 <- rs }, func(error) {})
	defer cancel2()
	waitFor(t, got1, "sub1 initial")
	waitFor(t, got2, "sub2 initial")

	f.set([]core.Record{{ID: "2"}, {ID: "1"}}, nil)
	_ = b.Notify(context.Background(), store.Change{Op: store.OpInsert})

	for len(waitFor(t, got1, "sub1 refetch")) != 2 {
	}
	for len(waitFor(t, got2, "sub2 refetch")) != 2 {
	}
}

func TestCancelStopsDeliveriesAndIsIdempotent(t *testing.T) {
	f := &fetchStub{records: []core.Record{{ID: "1"}}}
	b := bus.New()
	c := NewChannel(f, b)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() { _ = c.Run(ctx) }()

	var gone sync.Mutex
	canceled := false
	cancelA := c.Subscribe(context.Background(), func([]core.Record) {
		gone.Lock()
		if canceled {
			t.Errorf("delivery after cancel")
		}
		gone.Unlock()
	}, func(error) {})

	gotB := make(chan []core.Record, 4)
	cancelB := c.Subscribe(context.Background(), func(rs []core.Record) { gotB <- rs }, func(error) {})
	defer cancelB()
	waitFor(t, gotB, "sub B initial")

	gone.Lock()
	canceled = true
	gone.Unlock()
	cancelA()
	cancelA() // idempotent

	f.set([]core.Record{{ID: "2"}, {ID: "1"}}, nil)
	_ = b.Notify(context.Background(), store.Change{Op: store.OpInsert})

	for len(waitFor(t, gotB, "sub B refetch")) != 2 {
	}
}

func TestFetchErrorThenRecovery(t *testing.T) {
	f := &fetchStub{err: errors.New("down")}
	b := bus.New()
	c := NewChannel(f, b)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() { _ = c.Run(ctx) }()

	data := make(chan []core.Record, 4)
	fails := make(chan error, 4)
	cancel := c.Subscribe(context.Background(), func(rs []core.Record) { data <- rs }, func(err error) { fails <- err })
	defer cancel()

	waitFor(t, fails, "initial fetch failure")
	if c.Status() != StatusError {
		t.Fatalf("status = %v, want error", c.Status())
	}

	// Backend comes back; the next change event recovers the channel.
	f.set([]core.Record{{ID: "1"}}, nil)
	_ = b.Notify(context.Background(), store.Change{Op: store.OpInsert})

	rs := waitFor(t, data, "recovered snapshot")
	if len(rs) != 1 {
		t.Fatalf("unexpected snapshot after recovery: %+v", rs)
	}
	if c.Status() != StatusSynced {
		t.Fatalf("status = %v, want synced after recovery", c.Status())
	}
}

// ctxFetcher fails as soon as its context is done, like a real backend
// client would.
type ctxFetcher struct{}

func (ctxFetcher) FetchAll(ctx context.Context) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func TestSubscribeInitialFetchHonorsContext(t *testing.T) {
	c := NewChannel(ctxFetcher{}, bus.New())

	ctx, stop := context.WithCancel(context.Background())
	stop()

	fails := make(chan error, 1)
	cancel := c.Subscribe(ctx, func([]core.Record) {
		t.Error("unexpected delivery from a canceled fetch")
	}, func(err error) { fails <- err })
	defer cancel()

	if err := waitFor(t, fails, "canceled initial fetch"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFeedFailureReportsConnectionLost(t *testing.T) {
	f := &fetchStub{records: []core.Record{{ID: "1"}}}
	c := NewChannel(f, &errFeed{err: errors.New("socket closed")})

	fails := make(chan error, 2)
	cancel := c.Subscribe(context.Background(), func([]core.Record) {}, func(err error) { fails <- err })
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(context.Background()) }()

	err := waitFor(t, fails, "connection error")
	if !errors.Is(err, ErrConnectionLost) {
		t.Fatalf("expected ErrConnectionLost, got %v", err)
	}
	if err := waitFor(t, runErr, "run exit"); !errors.Is(err, ErrConnectionLost) {
		t.Fatalf("Run returned %v", err)
	}
}
