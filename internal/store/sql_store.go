package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
)

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryer is implemented by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore is a [Store] persisted in the documents table of a SQLite or
// PostgreSQL database.
//
// Every write of a single document runs in its own transaction: the current
// row is read, checked against the write, and replaced with a
// compare-and-swap update (or inserted). Bulk calls apply items one by one
// and publish a single change batch with everything that was written.
type SQLStore struct {
	db      *DB
	queries queryBuilder
	feed    *Feed
	now     func() time.Time
	logger  *logger.Logger
}

func NewSQLStore(db *DB, log *logger.Logger) *SQLStore {
	return &SQLStore{
		db:      db,
		queries: newQueryBuilder(db.dialect),
		feed:    NewFeed(),
		now:     func() time.Time { return time.Now().UTC() },
		logger:  log,
	}
}

func (s *SQLStore) Feed() *Feed {
	return s.feed
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) AllDocs(ctx context.Context) ([]models.Document, error) {
	log := logger.FromContext(ctx)

	query, args, err := s.queries.selectLive()
	if err != nil {
		return nil, buildError(err)
	}

	return s.queryDocs(ctx, log, "SQLStore.AllDocs", query, args)
}

func (s *SQLStore) Get(ctx context.Context, id string) (models.Document, error) {
	doc, exists, err := s.load(ctx, s.db.DB, id)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "SQLStore.Get").
			Str("doc_id", id).
			Msg("failed to read document")
		return models.Document{}, err
	}
	if !exists || doc.Deleted {
		return models.Document{}, ErrNotFound
	}
	return doc, nil
}

func (s *SQLStore) BulkGet(ctx context.Context, ids []string) ([]models.Document, error) {
	if len(ids) == 0 {
		return []models.Document{}, nil
	}
	log := logger.FromContext(ctx)

	query, args, err := s.queries.selectLiveByIDs(ids)
	if err != nil {
		return nil, buildError(err)
	}

	found, err := s.queryDocs(ctx, log, "SQLStore.BulkGet", query, args)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Document, len(found))
	for _, doc := range found {
		byID[doc.ID] = doc
	}

	docs := make([]models.Document, 0, len(found))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (s *SQLStore) Put(ctx context.Context, doc models.Document) (string, error) {
	stored, err := s.put(ctx, doc)
	if err != nil {
		return "", err
	}

	s.feed.publishWrite(ctx, []models.Document{stored})
	return stored.Rev, nil
}

func (s *SQLStore) BulkDocs(ctx context.Context, docs []models.Document) ([]models.BulkResult, error) {
	results := make([]models.BulkResult, 0, len(docs))
	written := make([]models.Document, 0, len(docs))

	for _, doc := range docs {
		stored, err := s.put(ctx, doc)
		if err != nil {
			results = append(results, errResult(doc.ID, err))
			continue
		}
		results = append(results, okResult(stored))
		written = append(written, stored)
	}

	s.logger.Debug().
		Str("func", "SQLStore.BulkDocs").
		Int("requested", len(docs)).
		Int("written", len(written)).
		Msg("bulk write applied")

	s.feed.publishWrite(ctx, written)
	return results, nil
}

func (s *SQLStore) Remove(ctx context.Context, ref models.DocRef) (string, error) {
	tombstone, err := s.remove(ctx, ref)
	if err != nil {
		return "", err
	}

	s.feed.publishWrite(ctx, []models.Document{tombstone})
	return tombstone.Rev, nil
}

func (s *SQLStore) BulkRemove(ctx context.Context, refs []models.DocRef) ([]models.BulkResult, error) {
	results := make([]models.BulkResult, 0, len(refs))
	removed := make([]models.Document, 0, len(refs))

	for _, ref := range refs {
		tombstone, err := s.remove(ctx, ref)
		if err != nil {
			results = append(results, errResult(ref.ID, err))
			continue
		}
		results = append(results, okResult(tombstone))
		removed = append(removed, tombstone)
	}

	s.feed.publishWrite(ctx, removed)
	return results, nil
}

func (s *SQLStore) put(ctx context.Context, doc models.Document) (models.Document, error) {
	var stored models.Document
	err := s.inTx(ctx, "SQLStore.Put", doc.ID, func(tx *sql.Tx) error {
		current, exists, err := s.load(ctx, tx, doc.ID)
		if err != nil {
			return err
		}

		stored, err = applyPut(current, exists, doc)
		if err != nil {
			return err
		}

		return s.save(ctx, tx, stored, current, exists)
	})
	return stored, err
}

func (s *SQLStore) remove(ctx context.Context, ref models.DocRef) (models.Document, error) {
	var tombstone models.Document
	err := s.inTx(ctx, "SQLStore.Remove", ref.ID, func(tx *sql.Tx) error {
		current, exists, err := s.load(ctx, tx, ref.ID)
		if err != nil {
			return err
		}

		tombstone, err = applyRemove(current, exists, ref)
		if err != nil {
			return err
		}

		return s.save(ctx, tx, tombstone, current, exists)
	})
	return tombstone, err
}

// save inserts next for a new identity or swaps it in for current.
func (s *SQLStore) save(ctx context.Context, tx *sql.Tx, next, current models.Document, exists bool) error {
	var (
		query string
		args  []any
		err   error
	)
	if exists {
		query, args, err = s.queries.update(next, current.Rev, s.now())
	} else {
		query, args, err = s.queries.insert(next, s.now())
	}
	if err != nil {
		return buildError(err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, s.db.classify(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s changed concurrently", ErrConflict, next.ID)
	}

	return nil
}

// inTx runs fn in a transaction, committing on success. Domain errors are
// returned unwrapped so callers can match them with errors.Is.
func (s *SQLStore) inTx(ctx context.Context, funcName, id string, fn func(tx *sql.Tx) error) error {
	log := logger.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", funcName).Str("doc_id", id).Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidDocument) {
			log.Err(err).Str("func", funcName).Str("doc_id", id).Msg("write failed")
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", funcName).Str("doc_id", id).Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, s.db.classify(err))
	}

	return nil
}

// load reads the row of id, tombstones included.
func (s *SQLStore) load(ctx context.Context, q queryer, id string) (models.Document, bool, error) {
	query, args, err := s.queries.selectByID(id)
	if err != nil {
		return models.Document{}, false, buildError(err)
	}

	doc, err := scanDocument(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, false, nil
	}
	if err != nil {
		return models.Document{}, false, err
	}

	return doc, true, nil
}

func (s *SQLStore) queryDocs(ctx context.Context, log *logger.Logger, funcName, query string, args []any) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to execute query for documents")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0, 50)
	for rows.Next() {
		doc, scanErr := scanDocument(rows)
		if scanErr != nil {
			log.Err(scanErr).Str("func", funcName).Msg("failed to scan document row")
			return nil, scanErr
		}
		docs = append(docs, doc)
	}

	if err = rows.Err(); err != nil {
		log.Err(err).Str("func", funcName).Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return docs, nil
}

func scanDocument(row rowScanner) (models.Document, error) {
	var (
		doc  models.Document
		body []byte
	)

	err := row.Scan(&doc.ID, &doc.Rev, &doc.Kind, &doc.Deleted, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, err
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	doc.Fields, err = unmarshalBody(body)
	if err != nil {
		return models.Document{}, err
	}

	return doc, nil
}
