package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"adminsum/internal/core"
)

// ClearBatchSize bounds delete-by-id batches so requests stay inside backend
// size limits.
const ClearBatchSize = 20

// Service orchestrates record mutations against a backend and publishes a
// change event after every successful write. Records are never mutated in
// place; there is no update operation.
type Service struct {
	store    Store
	notifier Notifier

	// Seams for tests.
	now   func() time.Time
	newID func() string
}

func NewService(store Store, notifier Notifier) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Records returns the full collection, newest first.
func (s *Service) Records(ctx context.Context) ([]core.Record, error) {
	return s.store.FetchAll(ctx)
}

// Add validates the draft, assigns id and timestamp, persists it, and
// notifies subscribers.
func (s *Service) Add(ctx context.Context, d core.Draft) (core.Record, error) {
	if err := d.Validate(); err != nil {
		return core.Record{}, err
	}
	r := core.NewRecord(d, s.newID(), s.now())
	if err := s.store.Insert(ctx, r); err != nil {
		return core.Record{}, err
	}
	s.publish(ctx, Change{Op: OpInsert, IDs: []string{r.ID}, Timestamp: s.now()})
	return r, nil
}

// AddMany persists all drafts as one batch write. Any invalid draft rejects
// the whole batch before I/O; a persistence failure fails the batch together.
func (s *Service) AddMany(ctx context.Context, ds []core.Draft) ([]core.Record, error) {
	if len(ds) == 0 {
		return nil, nil
	}
	for _, d := range ds {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	now := s.now()
	rs := make([]core.Record, len(ds))
	ids := make([]string, len(ds))
	for i, d := range ds {
		rs[i] = core.NewRecord(d, s.newID(), now)
		ids[i] = rs[i].ID
	}
	if err := s.store.InsertMany(ctx, rs); err != nil {
		return nil, err
	}
	s.publish(ctx, Change{Op: OpInsert, IDs: ids, Timestamp: s.now()})
	return rs, nil
}

// Remove deletes one record. A missing id is not an error.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.DeleteOne(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, Change{Op: OpDelete, IDs: []string{id}, Timestamp: s.now()})
	return nil
}

// Clear deletes exactly the given ids in batches of ClearBatchSize. Passing
// explicit ids rather than issuing a truncate avoids racing against inserts
// that arrive mid-operation. A failure partway through surfaces as
// *core.PartialFailure so callers can retry only the remainder.
func (s *Service) Clear(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	for i := 0; i < len(ids); i += ClearBatchSize {
		end := i + ClearBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := s.store.DeleteBatch(ctx, ids[i:end]); err != nil {
			if i > 0 {
				s.publish(ctx, Change{Op: OpClear, IDs: ids[:i], Timestamp: s.now()})
			}
			return &core.PartialFailure{
				Succeeded: ids[:i],
				Remaining: ids[i:],
				Err:       err,
			}
		}
	}
	s.publish(ctx, Change{Op: OpClear, IDs: ids, Timestamp: s.now()})
	return nil
}

func (s *Service) publish(ctx context.Context, c Change) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, c); err != nil {
		// The write already succeeded; subscribers reconcile on the next
		// event or resubscribe. Log and move on.
		slog.ErrorContext(ctx, "Failed to publish change event",
			"error", err,
			"op", string(c.Op),
			"ids", len(c.IDs))
	}
}
