// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors of request parsing and peer authentication. Callers can
// match against them with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned by the auth middleware when
	// token authentication is enabled and the request has no
	// "Authorization" header.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidToken is returned when the bearer token fails validation.
	ErrInvalidToken = errors.New("invalid peer token")

	// ErrEmptyPeerID is returned when token authentication is disabled and
	// the request has no peer ID header.
	ErrEmptyPeerID = errors.New("empty `X-Peer-ID` header")

	// ErrInvalidJSON is returned for request bodies that cannot be decoded.
	ErrInvalidJSON = errors.New("invalid JSON was passed")

	// ErrIDMismatch is returned when the body of PUT /api/docs/{id} names a
	// different identity than the path.
	ErrIDMismatch = errors.New("document id does not match the path")

	// ErrInvalidRequest wraps every rejection of the request validator.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMissingRevision is returned by DELETE /api/docs/{id} without ?rev=.
	ErrMissingRevision = errors.New("missing `rev` query parameter")
)
