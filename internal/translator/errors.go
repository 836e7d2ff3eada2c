package translator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidIntent is returned for intents without payload or with
	// documents lacking an identity.
	ErrInvalidIntent = errors.New("invalid mutation intent")

	// ErrReadBack is returned when a write succeeded but its stored form
	// could not be read again.
	ErrReadBack = errors.New("failed to read back written document")
)

// Failure is one rejected item of a bulk operation.
type Failure struct {
	ID  string
	Err error
}

// PartialError reports the items of a bulk operation the store rejected.
// errors.Is matches against every item error.
type PartialError struct {
	Failures []Failure
	// Total is the number of items the operation carried.
	Total int
}

func (e *PartialError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.ID, f.Err))
	}
	return fmt.Sprintf("%d of %d documents failed: %s", len(e.Failures), e.Total, strings.Join(parts, "; "))
}

func (e *PartialError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// All reports whether every item failed.
func (e *PartialError) All() bool {
	return len(e.Failures) == e.Total
}
