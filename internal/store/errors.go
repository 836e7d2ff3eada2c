package store

import "errors"

// Sentinel errors of the [DocumentStore] contract. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrNotFound is returned when the identity does not exist or was removed.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned when the revision supplied with a write is not
	// the current revision of the document.
	ErrConflict = errors.New("document update conflict")

	// ErrInvalidDocument is returned for documents without identity and for
	// tombstones written through Put.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrUnsupportedDriver is returned by NewStore for an unknown driver name.
	ErrUnsupportedDriver = errors.New("unsupported storage driver")
)

// Low-level database operation errors. These are returned (or wrapped) by
// the SQL store when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a SQL query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing an INSERT or UPDATE fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning a document row fails.
	ErrScanningRow = errors.New("failed to scan document row")

	// ErrScanningRows is returned when multi-row iteration fails.
	ErrScanningRows = errors.New("failed to scan document rows")

	// ErrEncodingBody is returned when document fields cannot be encoded or
	// decoded.
	ErrEncodingBody = errors.New("failed to encode document body")
)
