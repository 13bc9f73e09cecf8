package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"adminsum/internal/store"
)

func TestNotifyReachesAllSubscribers(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1, _, err := b.Changes(ctx)
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}
	ch2, _, err := b.Changes(ctx)
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}

	want := store.Change{Op: store.OpInsert, IDs: []string{"a"}, Timestamp: time.Now()}
	if err := b.Notify(context.Background(), want); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	for i, ch := range []<-chan store.Change{ch1, ch2} {
		select {
		case got := <-ch:
			if got.Op != store.OpInsert {
				t.Fatalf("subscriber %d got %+v", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive the event", i)
		}
	}
}

func TestCanceledSubscriberStopsReceiving(t *testing.T) {
	b := New()
	keep, cancelKeep := context.WithCancel(context.Background())
	defer cancelKeep()
	gone, cancelGone := context.WithCancel(context.Background())

	kept, _, _ := b.Changes(keep)
	dropped, _, _ := b.Changes(gone)

	cancelGone()
	// Wait for the dropped channel to close.
	select {
	case _, ok := <-dropped:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("subscription did not close after cancel")
	}

	_ = b.Notify(context.Background(), store.Change{Op: store.OpDelete})
	select {
	case <-kept:
	case <-time.After(time.Second):
		t.Fatalf("remaining subscriber must still receive events")
	}
}

// Subscriber teardown closes its channel; a concurrent Notify must never
// send on it. Run with -race to catch a close overlapping a send.
func TestNotifyDuringUnsubscribe(t *testing.T) {
	b := New()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = b.Notify(context.Background(), store.Change{Op: store.OpInsert, IDs: []string{"x"}})
			}
		}
	}()

	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		ch, _, err := b.Changes(ctx)
		if err != nil {
			t.Fatalf("Changes: %v", err)
		}
		cancel()

		// Drain until the teardown goroutine closes the channel.
		deadline := time.After(time.Second)
		for open := true; open; {
			select {
			case _, ok := <-ch:
				open = ok
			case <-deadline:
				t.Fatal("subscription did not close after cancel")
			}
		}
	}

	close(stop)
	wg.Wait()
}

func TestNotifyDoesNotBlockOnSlowSubscriber(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, _, _ = b.Changes(ctx) // nobody drains this subscription

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = b.Notify(context.Background(), store.Change{Op: store.OpInsert})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Notify blocked on a slow subscriber")
	}
}
