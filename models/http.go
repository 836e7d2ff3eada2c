package models

// BulkDocsRequest is the body of POST /api/bulk_docs.
type BulkDocsRequest struct {
	// Docs are written independently; each gets its own BulkResult.
	Docs []Document `json:"docs"`
}

// BulkGetRequest is the body of POST /api/bulk_get.
type BulkGetRequest struct {
	// IDs are the identities to read. Missing identities are skipped
	// in the response.
	IDs []string `json:"ids"`
}

// BulkRemoveRequest is the body of POST /api/bulk_remove.
type BulkRemoveRequest struct {
	// Refs name the revisions to remove.
	Refs []DocRef `json:"refs"`
}
