package store

import (
	"fmt"

	"github.com/MKhiriev/go-doc-sync/models"
)

// applyPut checks doc against the stored state of its identity and returns
// the document to persist. current is the zero Document when exists is false.
//
// A live document may only be replaced by a write carrying its revision.
// An absent identity may only be created without a revision. A tombstone may
// be recreated with no revision or with the tombstone's revision.
func applyPut(current models.Document, exists bool, doc models.Document) (models.Document, error) {
	if doc.ID == "" {
		return models.Document{}, fmt.Errorf("%w: empty identity", ErrInvalidDocument)
	}
	if doc.Deleted {
		return models.Document{}, fmt.Errorf("%w: %s: tombstones are written with Remove", ErrInvalidDocument, doc.ID)
	}

	switch {
	case !exists:
		if doc.Rev != "" {
			return models.Document{}, fmt.Errorf("%w: %s does not exist", ErrConflict, doc.ID)
		}
	case current.Deleted:
		if doc.Rev != "" && doc.Rev != current.Rev {
			return models.Document{}, fmt.Errorf("%w: %s: stale revision %s", ErrConflict, doc.ID, doc.Rev)
		}
	default:
		if doc.Rev != current.Rev {
			return models.Document{}, fmt.Errorf("%w: %s: revision %q, current %q", ErrConflict, doc.ID, doc.Rev, current.Rev)
		}
	}

	next := doc.Clone()
	rev, err := nextRevision(current.Rev, next)
	if err != nil {
		return models.Document{}, err
	}
	next.Rev = rev

	return next, nil
}

// applyRemove checks ref against the stored state and returns the tombstone
// to persist. Tombstones carry no category and no fields.
func applyRemove(current models.Document, exists bool, ref models.DocRef) (models.Document, error) {
	if ref.ID == "" {
		return models.Document{}, fmt.Errorf("%w: empty identity", ErrInvalidDocument)
	}
	if !exists || current.Deleted {
		return models.Document{}, fmt.Errorf("%w: %s", ErrNotFound, ref.ID)
	}
	if ref.Rev != current.Rev {
		return models.Document{}, fmt.Errorf("%w: %s: revision %q, current %q", ErrConflict, ref.ID, ref.Rev, current.Rev)
	}

	tombstone := models.Document{ID: ref.ID, Deleted: true}
	rev, err := nextRevision(current.Rev, tombstone)
	if err != nil {
		return models.Document{}, err
	}
	tombstone.Rev = rev

	return tombstone, nil
}

func okResult(doc models.Document) models.BulkResult {
	return models.BulkResult{ID: doc.ID, Rev: doc.Rev}
}

func errResult(id string, err error) models.BulkResult {
	return models.BulkResult{ID: id, Error: err.Error(), Err: err}
}
