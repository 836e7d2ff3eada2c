// Package http exposes a [store.Store] over HTTP.
//
// Document reads and writes are plain JSON endpoints under /api; the change
// feed is a websocket at /api/changes that streams one changeset per store
// write, as seen by the connected peer. Trace IDs, access logging, peer
// authentication and response compression are handled by middleware before
// requests reach the store.
package http
