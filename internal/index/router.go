package index

import "github.com/MKhiriev/go-doc-sync/models"

// Batch is the classified share of one category.
type Batch struct {
	Category string
	Insert   []models.Document
	Update   []models.Document
	Remove   []models.DocRef

	// Seen holds every document classified into the batch in arrival order.
	Seen []models.Document
}

// Empty reports whether nothing was classified into b.
func (b *Batch) Empty() bool {
	return len(b.Insert) == 0 && len(b.Update) == 0 && len(b.Remove) == 0
}

// Router groups documents of mixed categories, keeping the order in which
// categories were first seen.
type Router struct {
	order   []*Batch
	batches map[string]*Batch
}

func NewRouter() *Router {
	return &Router{batches: make(map[string]*Batch)}
}

// For returns the batch of category, creating it on first use.
func (r *Router) For(category string) *Batch {
	if b, ok := r.batches[category]; ok {
		return b
	}

	b := &Batch{Category: category}
	r.batches[category] = b
	r.order = append(r.order, b)
	return b
}

// Batches returns the batches in first-seen order.
func (r *Router) Batches() []*Batch {
	return r.order
}
