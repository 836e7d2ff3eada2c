// Package utils provides helpers shared by the store server, the client
// adapter and the CLI: context keys, peer tokens, identifier generation and
// JSON response writing.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// A dedicated type prevents collisions with string keys of other packages.
type contextKey string

// String implements fmt.Stringer.
func (c contextKey) String() string {
	return string(c)
}

// PeerIDCtxKey is the key under which the identifier of the peer issuing a
// store write is kept in the context.
//
// The store reads it to tag the change batch of every write with its origin,
// so a peer can recognise its own writes on the change feed.
var PeerIDCtxKey = contextKey("peerID")

// WithPeerID returns a copy of ctx carrying peerID.
// An empty peerID returns ctx unchanged.
func WithPeerID(ctx context.Context, peerID string) context.Context {
	if peerID == "" {
		return ctx
	}
	return context.WithValue(ctx, PeerIDCtxKey, peerID)
}

// GetPeerIDFromContext retrieves the peer identifier from the context.
//
// ok is false when the value is missing, has an unexpected type or is empty.
func GetPeerIDFromContext(ctx context.Context) (string, bool) {
	peerID, ok := ctx.Value(PeerIDCtxKey).(string)
	return peerID, ok && peerID != ""
}
