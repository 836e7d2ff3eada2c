// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// Reserved keys of the flat JSON document form. Every other key is a
// category-specific field.
const (
	FieldID      = "_id"
	FieldRev     = "_rev"
	FieldDeleted = "_deleted"
	FieldKind    = "kind"
)

// ErrMalformedDocument is returned when a JSON document carries a reserved
// field with an unexpected type.
var ErrMalformedDocument = errors.New("malformed document")

// Document is a single record of the document store.
//
// ID is globally unique. Kind is the synchronized category; documents with an
// empty Kind are never synchronized. Rev is the opaque revision token assigned
// by the store and must be echoed back on updates and removals.
// Deleted marks a tombstone as delivered by a change feed.
type Document struct {
	ID      string
	Rev     string
	Kind    string
	Deleted bool
	Fields  map[string]any
}

// Ref returns the identity/revision pair of the document.
func (d Document) Ref() DocRef {
	return DocRef{ID: d.ID, Rev: d.Rev}
}

// IsModel reports whether the document carries a category.
func (d Document) IsModel() bool {
	return d.Kind != ""
}

// Clone returns a copy of d whose Fields map can be modified independently.
func (d Document) Clone() Document {
	d.Fields = maps.Clone(d.Fields)
	return d
}

// Field returns a category-specific field value.
func (d Document) Field(key string) (any, bool) {
	v, ok := d.Fields[key]
	return v, ok
}

// MarshalJSON encodes the document in the flat wire form
// {"_id": ..., "_rev": ..., "kind": ..., "<field>": ...}.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+4)
	for k, v := range d.Fields {
		out[k] = v
	}

	out[FieldID] = d.ID
	if d.Rev != "" {
		out[FieldRev] = d.Rev
	}
	if d.Kind != "" {
		out[FieldKind] = d.Kind
	}
	if d.Deleted {
		out[FieldDeleted] = true
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes the flat wire form produced by MarshalJSON.
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	doc := Document{}
	for key, value := range raw {
		switch key {
		case FieldID, FieldRev, FieldKind:
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: field %q must be a string", ErrMalformedDocument, key)
			}
			switch key {
			case FieldID:
				doc.ID = s
			case FieldRev:
				doc.Rev = s
			default:
				doc.Kind = s
			}
		case FieldDeleted:
			deleted, ok := value.(bool)
			if !ok {
				return fmt.Errorf("%w: field %q must be a boolean", ErrMalformedDocument, key)
			}
			doc.Deleted = deleted
		default:
			if doc.Fields == nil {
				doc.Fields = make(map[string]any, len(raw))
			}
			doc.Fields[key] = value
		}
	}

	*d = doc
	return nil
}

// DocRef identifies one revision of a document. Removals are authorized by it.
type DocRef struct {
	ID  string `json:"_id"`
	Rev string `json:"_rev"`
}

// BulkResult is the per-item outcome of a bulk store operation.
// Err is nil on success; Error carries its wire form.
type BulkResult struct {
	ID    string `json:"id"`
	Rev   string `json:"rev,omitempty"`
	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

// OK reports whether the item was written.
func (r BulkResult) OK() bool {
	return r.Err == nil && r.Error == ""
}
