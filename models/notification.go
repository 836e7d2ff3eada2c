// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// NotificationType is the tag of a Notification.
type NotificationType string

// Notification types. Insert, update and remove types double as local
// mutation intents when FromRemote is false.
const (
	LoadModels       NotificationType = "@@sync/LOAD_MODELS"
	ModelInitialized NotificationType = "@@sync/MODEL_INITIALIZED"
	Initialized      NotificationType = "@@sync/INITIALIZED"
	InsertModel      NotificationType = "@@sync/INSERT_MODEL"
	InsertBulkModels NotificationType = "@@sync/INSERT_BULK_MODELS"
	UpdateModel      NotificationType = "@@sync/UPDATE_MODEL"
	UpdateBulkModels NotificationType = "@@sync/UPDATE_BULK_MODELS"
	RemoveModel      NotificationType = "@@sync/REMOVE_MODEL"
	RemoveBulkModels NotificationType = "@@sync/REMOVE_BULK_MODELS"
	ModelError       NotificationType = "@@sync/ERROR"
)

// OperationKind names the operation a ModelError notification reports.
type OperationKind string

const (
	OperationFetchDocs  OperationKind = "OPERATION_FETCH_DOCS"
	OperationInsert     OperationKind = "OPERATION_INSERT"
	OperationBulkInsert OperationKind = "OPERATION_BULK_INSERT"
	OperationUpdate     OperationKind = "OPERATION_UPDATE"
	OperationBulkUpdate OperationKind = "OPERATION_BULK_UPDATE"
	OperationRemove     OperationKind = "OPERATION_REMOVE"
	OperationBulkRemove OperationKind = "OPERATION_BULK_REMOVE"
)

// Meta is the metadata carried by every notification.
type Meta struct {
	// Category is the synchronized category the notification belongs to.
	Category string `json:"kind,omitempty"`

	// FromRemote marks notifications produced from replicated changes.
	// They must never be translated into store writes again.
	FromRemote bool `json:"fromSync,omitempty"`

	// Operation identifies the failed operation of a ModelError.
	Operation OperationKind `json:"operation,omitempty"`

	// Name is the optional session name of an Initialized notification.
	Name string `json:"name,omitempty"`

	// IDs are the identities of the intent a ModelError reports, in payload
	// order. Empty for failures not tied to an intent.
	IDs []string `json:"ids,omitempty"`
}

// Notification is a tagged event flowing through the notification bus.
//
// Documents is the payload of load, insert and update types; Refs is the
// payload of remove types; Err is the payload of ModelError.
type Notification struct {
	Type      NotificationType `json:"type"`
	Documents []Document       `json:"documents,omitempty"`
	Refs      []DocRef         `json:"refs,omitempty"`
	Err       error            `json:"-"`
	Meta      Meta             `json:"meta"`
}

// ActionType implements the bus action contract.
func (n Notification) ActionType() string {
	return string(n.Type)
}

// Identities returns the identities the notification's payload touches.
func (n Notification) Identities() []string {
	ids := make([]string, 0, len(n.Documents)+len(n.Refs))
	for _, d := range n.Documents {
		ids = append(ids, d.ID)
	}
	for _, r := range n.Refs {
		ids = append(ids, r.ID)
	}
	return ids
}

// IsInsert reports whether n is a singular or bulk insert.
func (n Notification) IsInsert() bool {
	return n.Type == InsertModel || n.Type == InsertBulkModels
}

// IsUpdate reports whether n is a singular or bulk update.
func (n Notification) IsUpdate() bool {
	return n.Type == UpdateModel || n.Type == UpdateBulkModels
}

// IsRemove reports whether n is a singular or bulk removal.
func (n Notification) IsRemove() bool {
	return n.Type == RemoveModel || n.Type == RemoveBulkModels
}

// Loaded replaces the materialized state of category with docs.
func Loaded(category string, docs []Document) Notification {
	return Notification{Type: LoadModels, Documents: docs, Meta: Meta{Category: category}}
}

// CategoryReady marks category as fully loaded.
func CategoryReady(category string) Notification {
	return Notification{Type: ModelInitialized, Meta: Meta{Category: category}}
}

// Ready marks the end of the initial load of a session.
func Ready(name string) Notification {
	return Notification{Type: Initialized, Meta: Meta{Name: name}}
}

// Insert is a single-document insert. The category is taken from doc.Kind.
func Insert(doc Document, fromRemote bool) Notification {
	return Notification{
		Type:      InsertModel,
		Documents: []Document{doc},
		Meta:      Meta{Category: doc.Kind, FromRemote: fromRemote},
	}
}

// InsertBulk is an insert of many documents of one category.
func InsertBulk(docs []Document, category string, fromRemote bool) Notification {
	return Notification{
		Type:      InsertBulkModels,
		Documents: docs,
		Meta:      Meta{Category: category, FromRemote: fromRemote},
	}
}

// Update is a single-document update. The category is taken from doc.Kind.
func Update(doc Document, fromRemote bool) Notification {
	return Notification{
		Type:      UpdateModel,
		Documents: []Document{doc},
		Meta:      Meta{Category: doc.Kind, FromRemote: fromRemote},
	}
}

// UpdateBulk is an update of many documents of one category.
func UpdateBulk(docs []Document, category string, fromRemote bool) Notification {
	return Notification{
		Type:      UpdateBulkModels,
		Documents: docs,
		Meta:      Meta{Category: category, FromRemote: fromRemote},
	}
}

// Remove is a single-document removal.
func Remove(ref DocRef, category string, fromRemote bool) Notification {
	return Notification{
		Type: RemoveModel,
		Refs: []DocRef{ref},
		Meta: Meta{Category: category, FromRemote: fromRemote},
	}
}

// RemoveBulk is a removal of many documents of one category.
func RemoveBulk(refs []DocRef, category string, fromRemote bool) Notification {
	return Notification{
		Type: RemoveBulkModels,
		Refs: refs,
		Meta: Meta{Category: category, FromRemote: fromRemote},
	}
}

// Failed reports a failed operation on the identities ids.
func Failed(err error, operation OperationKind, ids ...string) Notification {
	return Notification{Type: ModelError, Err: err, Meta: Meta{Operation: operation, IDs: ids}}
}
