package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
)

var (
	selectDocumentsSQL = regexp.QuoteMeta(`SELECT id, rev, kind, deleted, body FROM documents WHERE`)
	insertDocumentSQL  = regexp.QuoteMeta(`INSERT INTO documents (id,rev,kind,deleted,body,updated_at) VALUES ($1,$2,$3,$4,$5,$6)`)
	updateDocumentSQL  = regexp.QuoteMeta(`UPDATE documents SET rev = $1, kind = $2, deleted = $3, body = $4, updated_at = $5 WHERE`)
)

var documentRowColumns = []string{"id", "rev", "kind", "deleted", "body"}

func newMockSQLStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db := &DB{
		DB:                 conn,
		dialect:            config.DriverPostgres,
		errorClassificator: NewPostgresErrorClassifier(),
		logger:             logger.Nop(),
	}
	s := NewSQLStore(db, logger.Nop())
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s, mock
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

func mustBody(t *testing.T, fields map[string]any) []byte {
	t.Helper()
	b, err := marshalBody(fields)
	require.NoError(t, err)
	return b
}

func TestSQLStore_PutInsert(t *testing.T) {
	s, mock := newMockSQLStore(t)
	doc := todo("1234", "milk")

	mock.ExpectBegin()
	mock.ExpectQuery(selectDocumentsSQL).
		WithArgs("1234").
		WillReturnRows(sqlmock.NewRows(documentRowColumns))
	mock.ExpectExec(insertDocumentSQL).
		WithArgs("1234", sqlmock.AnyArg(), "todo", false, mustBody(t, doc.Fields), s.now()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rev, err := s.Put(testContext(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, generation(rev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_PutUpdate(t *testing.T) {
	s, mock := newMockSQLStore(t)
	doc := todo("1234", "oat milk")
	doc.Rev = "1-aaaa"

	mock.ExpectBegin()
	mock.ExpectQuery(selectDocumentsSQL).
		WithArgs("1234").
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("1234", "1-aaaa", "todo", false, mustBody(t, map[string]any{"title": "milk"})))
	mock.ExpectExec(updateDocumentSQL).
		WithArgs(sqlmock.AnyArg(), "todo", false, mustBody(t, doc.Fields), s.now(), "1234", "1-aaaa").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rev, err := s.Put(testContext(), doc)
	require.NoError(t, err)
	assert.Equal(t, 2, generation(rev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_PutErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     models.Document
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "concurrent creator wins: unique violation",
			doc:  todo("1234", "milk"),
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(selectDocumentsSQL).WillReturnRows(sqlmock.NewRows(documentRowColumns))
				mock.ExpectExec(insertDocumentSQL).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
				mock.ExpectRollback()
			},
			wantErr: ErrConflict,
		},
		{
			name: "concurrent updater wins: no rows affected",
			doc:  models.Document{ID: "1234", Rev: "1-aaaa", Kind: "todo"},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(selectDocumentsSQL).WillReturnRows(sqlmock.NewRows(documentRowColumns).
					AddRow("1234", "1-aaaa", "todo", false, nil))
				mock.ExpectExec(updateDocumentSQL).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			wantErr: ErrConflict,
		},
		{
			name: "stale revision is rejected before writing",
			doc:  models.Document{ID: "1234", Rev: "1-old", Kind: "todo"},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(selectDocumentsSQL).WillReturnRows(sqlmock.NewRows(documentRowColumns).
					AddRow("1234", "2-new", "todo", false, nil))
				mock.ExpectRollback()
			},
			wantErr: ErrConflict,
		},
		{
			name: "begin fails",
			doc:  todo("1234", "milk"),
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("connection reset"))
			},
			wantErr: ErrBeginningTransaction,
		},
		{
			name: "corrupt body",
			doc:  models.Document{ID: "1234", Rev: "1-aaaa", Kind: "todo"},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(selectDocumentsSQL).WillReturnRows(sqlmock.NewRows(documentRowColumns).
					AddRow("1234", "1-aaaa", "todo", false, []byte{0xc1}))
				mock.ExpectRollback()
			},
			wantErr: ErrEncodingBody,
		},
		{
			name: "commit fails",
			doc:  todo("1234", "milk"),
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(selectDocumentsSQL).WillReturnRows(sqlmock.NewRows(documentRowColumns))
				mock.ExpectExec(insertDocumentSQL).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: pgerrcode.SerializationFailure})
			},
			wantErr: ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockSQLStore(t)
			published := 0
			s.Feed().Subscribe(func(models.ChangeBatch) { published++ })
			tt.setup(mock)

			_, err := s.Put(testContext(), tt.doc)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, published)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLStore_AllDocs(t *testing.T) {
	s, mock := newMockSQLStore(t)

	mock.ExpectQuery(selectDocumentsSQL).
		WithArgs(false).
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("1", "1-a", "todo", false, mustBody(t, map[string]any{"title": "milk"})).
			AddRow("2", "3-b", "", false, nil))

	docs, err := s.AllDocs(testContext())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, models.Document{ID: "1", Rev: "1-a", Kind: "todo", Fields: map[string]any{"title": "milk"}}, docs[0])
	assert.Equal(t, models.Document{ID: "2", Rev: "3-b"}, docs[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_AllDocsErrors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		s, mock := newMockSQLStore(t)
		mock.ExpectQuery(selectDocumentsSQL).WillReturnError(sql.ErrConnDone)

		_, err := s.AllDocs(testContext())
		assert.ErrorIs(t, err, ErrExecutingQuery)
	})

	t.Run("scan", func(t *testing.T) {
		s, mock := newMockSQLStore(t)
		mock.ExpectQuery(selectDocumentsSQL).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("1"))

		_, err := s.AllDocs(testContext())
		assert.ErrorIs(t, err, ErrScanningRow)
	})

	t.Run("iteration", func(t *testing.T) {
		s, mock := newMockSQLStore(t)
		mock.ExpectQuery(selectDocumentsSQL).
			WillReturnRows(sqlmock.NewRows(documentRowColumns).
				AddRow("1", "1-a", "todo", false, nil).
				RowError(0, errors.New("network")))

		_, err := s.AllDocs(testContext())
		assert.ErrorIs(t, err, ErrScanningRows)
	})
}

func TestQueryBuilder_Placeholders(t *testing.T) {
	pg, args, err := newQueryBuilder(config.DriverPostgres).selectLiveByIDs([]string{"a", "b"})
	require.NoError(t, err)
	assert.Contains(t, pg, "id IN ($1,$2)")
	assert.Contains(t, pg, "deleted = $3")
	assert.Equal(t, []any{"a", "b", false}, args)

	lite, _, err := newQueryBuilder(config.DriverSQLite).selectByID("a")
	require.NoError(t, err)
	assert.Contains(t, lite, "WHERE id = ?")
}

func TestErrorClassifiers(t *testing.T) {
	plain := errors.New("boom")

	pg := NewPostgresErrorClassifier()
	assert.ErrorIs(t, pg.Classify(&pgconn.PgError{Code: pgerrcode.UniqueViolation}), ErrConflict)
	assert.ErrorIs(t, pg.Classify(&pgconn.PgError{Code: pgerrcode.DeadlockDetected}), ErrConflict)
	assert.NotErrorIs(t, pg.Classify(&pgconn.PgError{Code: pgerrcode.SyntaxError}), ErrConflict)
	assert.Same(t, plain, pg.Classify(plain))

	lite := NewSQLiteErrorClassifier()
	assert.ErrorIs(t, lite.Classify(sqlite3.Error{Code: sqlite3.ErrConstraint}), ErrConflict)
	assert.NotErrorIs(t, lite.Classify(sqlite3.Error{Code: sqlite3.ErrBusy}), ErrConflict)
	assert.Same(t, plain, lite.Classify(plain))
}

func TestNewStore_UnsupportedDriver(t *testing.T) {
	_, err := NewStore(context.Background(), config.DB{Driver: "mongo"}, logger.Nop())
	assert.ErrorIs(t, err, ErrUnsupportedDriver)

	s, err := NewStore(context.Background(), config.DB{Driver: config.DriverMemory}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
}
