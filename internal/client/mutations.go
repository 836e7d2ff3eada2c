package client

import (
	"context"
	"fmt"
	"slices"

	"github.com/MKhiriev/go-doc-sync/internal/bus"
	"github.com/MKhiriev/go-doc-sync/models"
)

// Insert dispatches an insert intent for doc and waits for its outcome.
func (s *Session) Insert(ctx context.Context, doc models.Document) (models.Document, error) {
	confirmed, err := s.mutate(ctx, models.Insert(doc, false), models.OperationInsert)
	if err != nil {
		return models.Document{}, err
	}
	return confirmed.Documents[0], nil
}

// Update dispatches an update intent for doc and waits for its outcome.
func (s *Session) Update(ctx context.Context, doc models.Document) (models.Document, error) {
	confirmed, err := s.mutate(ctx, models.Update(doc, false), models.OperationUpdate)
	if err != nil {
		return models.Document{}, err
	}
	return confirmed.Documents[0], nil
}

// Remove dispatches a remove intent for ref and waits for its outcome.
func (s *Session) Remove(ctx context.Context, ref models.DocRef, category string) error {
	_, err := s.mutate(ctx, models.Remove(ref, category, false), models.OperationRemove)
	return err
}

// mutate dispatches intent and returns the confirmed notification that
// replaced it, or the error of the Failed notification reporting kind.
func (s *Session) mutate(ctx context.Context, intent models.Notification, kind models.OperationKind) (models.Notification, error) {
	if !s.categories.Contains(intent.Meta.Category) {
		return models.Notification{}, fmt.Errorf("%w: %q", ErrNotSynchronized, intent.Meta.Category)
	}

	rec := bus.NewRecorder()
	detach := rec.Attach(s.bus)
	defer detach()

	s.bus.Dispatch(intent)

	outcome, err := rec.WaitFor(ctx, outcomeOf(intent, kind))
	if err != nil {
		return models.Notification{}, fmt.Errorf("error awaiting %s: %w", kind, err)
	}

	n := outcome.(models.Notification)
	if n.Type == models.ModelError {
		return models.Notification{}, n.Err
	}
	return n, nil
}

// outcomeOf matches the notification that settles intent: its confirmed
// replacement, or the failure of kind reported for the same identities.
func outcomeOf(intent models.Notification, kind models.OperationKind) func(bus.Action) bool {
	ids := intent.Identities()
	return func(a bus.Action) bool {
		n, ok := a.(models.Notification)
		if !ok {
			return false
		}
		if n.Type == models.ModelError {
			return n.Meta.Operation == kind && slices.Equal(n.Meta.IDs, ids)
		}
		return n.Type == intent.Type && !n.Meta.FromRemote && slices.Equal(n.Identities(), ids)
	}
}
