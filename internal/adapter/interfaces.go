// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter connects a client to a remote store server.
//
// [HTTPStore] implements [store.DocumentStore] over the server's JSON API and
// [ChangesFeed] implements [store.ChangeSource] over its websocket change
// feed. Together they let the reconciler run against a remote store exactly
// as it runs against a local one.
//
// Non-2xx responses are mapped back to the store sentinels by mapHTTPError,
// so callers keep using [errors.Is] with [store.ErrNotFound],
// [store.ErrConflict] and [store.ErrInvalidDocument].
package adapter

import (
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/workers"
)

var (
	_ store.DocumentStore = (*HTTPStore)(nil)
	_ store.ChangeSource  = (*ChangesFeed)(nil)
	_ workers.Worker      = (*ChangesFeed)(nil)
)
