package client

import "errors"

var (
	// ErrNoCategories is returned when the session has nothing to synchronize.
	ErrNoCategories = errors.New("no synchronized categories configured")

	// ErrNotSynchronized is returned for mutations of a category outside the
	// session.
	ErrNotSynchronized = errors.New("category is not synchronized")

	// ErrLoadFailed is returned by Ready when the initial snapshot could not
	// be read.
	ErrLoadFailed = errors.New("initial load failed")
)
