// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package projection folds notifications into the materialized state of one
// category.
package projection

import (
	"github.com/MKhiriev/go-doc-sync/internal/bus"
	"github.com/MKhiriev/go-doc-sync/models"
)

// State is the materialized view of one category. Items are unique by
// identity as long as the notifications folded into it are.
type State struct {
	Items []models.Document
	Ready bool
}

// Initial returns the state before any notification: no items, not ready.
func Initial() State {
	return State{Items: []models.Document{}}
}

// Projection folds the notifications of one category.
type Projection struct {
	Category string
}

func New(category string) Projection {
	return Projection{Category: category}
}

// Fold returns the state after a. It never modifies prev; a new Items slice
// is allocated whenever the items change. Actions that are not notifications
// or that belong to another category leave the state unchanged.
//
// Inserts are appended without deduplication.
func (p Projection) Fold(prev State, a bus.Action) State {
	n, ok := a.(models.Notification)
	if !ok || n.Meta.Category != p.Category {
		return prev
	}

	switch n.Type {
	case models.ModelInitialized:
		return State{Items: prev.Items, Ready: true}

	case models.LoadModels:
		return State{Items: append([]models.Document{}, n.Documents...), Ready: prev.Ready}

	case models.InsertModel, models.InsertBulkModels:
		items := make([]models.Document, 0, len(prev.Items)+len(n.Documents))
		items = append(items, prev.Items...)
		items = append(items, n.Documents...)
		return State{Items: items, Ready: prev.Ready}

	case models.UpdateModel, models.UpdateBulkModels:
		byID := make(map[string]models.Document, len(n.Documents))
		for _, d := range n.Documents {
			byID[d.ID] = d
		}

		items := make([]models.Document, len(prev.Items))
		for i, item := range prev.Items {
			if d, ok := byID[item.ID]; ok {
				items[i] = d
				continue
			}
			items[i] = item
		}
		return State{Items: items, Ready: prev.Ready}

	case models.RemoveModel, models.RemoveBulkModels:
		drop := make(map[string]struct{}, len(n.Refs))
		for _, r := range n.Refs {
			drop[r.ID] = struct{}{}
		}

		items := make([]models.Document, 0, len(prev.Items))
		for _, item := range prev.Items {
			if _, ok := drop[item.ID]; !ok {
				items = append(items, item)
			}
		}
		return State{Items: items, Ready: prev.Ready}
	}

	return prev
}
