// Package changes turns replicated changesets into bulk notifications.
package changes

import (
	"github.com/MKhiriev/go-doc-sync/internal/index"
	"github.com/MKhiriev/go-doc-sync/models"
)

// Reducer classifies remote change entries against the identity index.
type Reducer struct {
	index      *index.Index
	categories models.CategorySet
}

func NewReducer(idx *index.Index, categories models.CategorySet) *Reducer {
	return &Reducer{index: idx, categories: categories}
}

// Reduce classifies every entry of cs and returns, per category in
// first-seen order, at most one bulk insert, one bulk update and one bulk
// removal, all marked as remote. Push changesets yield nothing.
//
// A tombstone of a known identity is a removal under the recorded category.
// Any other entry outside the synchronized categories is ignored, which
// includes tombstones of unknown identities. Unknown identities are inserts
// and are recorded; known ones are updates.
func (r *Reducer) Reduce(cs models.Changeset) []models.Notification {
	if cs.Direction == models.Push {
		return nil
	}

	router := index.NewRouter()
	for _, doc := range cs.Docs {
		if doc.Deleted {
			if category, known := r.index.Release(doc.ID); known {
				batch := router.For(category)
				batch.Remove = append(batch.Remove, doc.Ref())
			}
			continue
		}

		if !r.categories.Syncs(doc) {
			continue
		}

		batch := router.For(doc.Kind)
		if r.index.Remember(doc.ID, doc.Kind) {
			batch.Insert = append(batch.Insert, doc)
		} else {
			batch.Update = append(batch.Update, doc)
		}
	}

	var out []models.Notification
	for _, b := range router.Batches() {
		if len(b.Insert) > 0 {
			out = append(out, models.InsertBulk(b.Insert, b.Category, true))
		}
		if len(b.Update) > 0 {
			out = append(out, models.UpdateBulk(b.Update, b.Category, true))
		}
		if len(b.Remove) > 0 {
			out = append(out, models.RemoveBulk(b.Remove, b.Category, true))
		}
	}
	return out
}
