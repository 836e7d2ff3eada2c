package adapter

import "errors"

var (
	// ErrUnauthorized is returned when the server rejects the peer's
	// credentials. The change feed does not retry it.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrInvalidAddress is returned for an adapter address that is not a
	// usable URL.
	ErrInvalidAddress = errors.New("invalid adapter address")

	// ErrUnexpectedResponse is returned for non-2xx statuses without a store
	// meaning and for bodies that cannot be decoded.
	ErrUnexpectedResponse = errors.New("unexpected server response")
)
