package store

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

import (
	"context"

	"github.com/MKhiriev/go-doc-sync/models"
)

// DocumentStore is a revisioned document store.
//
// Writes are optimistic: updates and removals must carry the revision they
// were derived from and fail with [ErrConflict] otherwise. Bulk operations
// are not atomic; every item gets its own [models.BulkResult].
type DocumentStore interface {
	// AllDocs returns every live document ordered by identity.
	AllDocs(ctx context.Context) ([]models.Document, error)
	// Get returns the current revision of a live document or [ErrNotFound].
	Get(ctx context.Context, id string) (models.Document, error)
	// BulkGet returns the live documents among ids, in the order of ids.
	// Missing identities are skipped.
	BulkGet(ctx context.Context, ids []string) ([]models.Document, error)
	// Put creates or updates a document and returns its new revision.
	Put(ctx context.Context, doc models.Document) (string, error)
	// BulkDocs puts every document independently.
	BulkDocs(ctx context.Context, docs []models.Document) ([]models.BulkResult, error)
	// Remove deletes the revision ref and returns the tombstone revision.
	Remove(ctx context.Context, ref models.DocRef) (string, error)
	// BulkRemove removes every reference independently.
	BulkRemove(ctx context.Context, refs []models.DocRef) ([]models.BulkResult, error)
}

// ChangeSource delivers replicated changes.
type ChangeSource interface {
	// Subscribe registers handler for every future changeset. Calling the
	// returned function stops delivery.
	Subscribe(handler func(models.Changeset)) (unsubscribe func())
}

// Store is a [DocumentStore] that publishes its writes to a [Feed].
type Store interface {
	DocumentStore
	Feed() *Feed
	Close() error
}

// ErrorClassificator translates driver errors into store sentinels.
type ErrorClassificator interface {
	// Classify returns err wrapped with a store sentinel when the driver
	// error has a domain meaning, and err unchanged otherwise.
	Classify(err error) error
}
