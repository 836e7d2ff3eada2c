package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidID       = errors.New("invalid document id")
	ErrInvalidRevision = errors.New("invalid revision")
	ErrMissingRevision = errors.New("revision is required")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrReservedField   = errors.New("reserved field name")
	ErrDuplicateID     = errors.New("duplicate document id in bulk request")
	ErrTooManyItems    = errors.New("too many items in bulk request")
)
