// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"

	"github.com/MKhiriev/go-doc-sync/internal/projection"
	"github.com/MKhiriev/go-doc-sync/models"
)

// Client is the session contract used by the CLI commands.
type Client interface {
	// Insert creates doc and returns its stored form.
	Insert(ctx context.Context, doc models.Document) (models.Document, error)
	// Update replaces doc and returns its stored form.
	Update(ctx context.Context, doc models.Document) (models.Document, error)
	// Remove deletes the referenced revision of a document of category.
	Remove(ctx context.Context, ref models.DocRef, category string) error
	// Views returns one view per synchronized category in lexical order.
	Views() []*projection.View
	// Close stops the session and releases the store.
	Close() error
}

var _ Client = (*Session)(nil)
