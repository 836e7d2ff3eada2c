package store

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/models"
)

const documentsTable = "documents"

var documentColumns = []string{"id", "rev", "kind", "deleted", "body"}

// queryBuilder renders the document store statements for one dialect.
type queryBuilder struct {
	sq sq.StatementBuilderType
}

func newQueryBuilder(dialect string) queryBuilder {
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == config.DriverPostgres {
		placeholder = sq.Dollar
	}
	return queryBuilder{sq: sq.StatementBuilder.PlaceholderFormat(placeholder)}
}

func (q queryBuilder) selectLive() (string, []any, error) {
	return q.sq.Select(documentColumns...).
		From(documentsTable).
		Where(sq.Eq{"deleted": false}).
		OrderBy("id").
		ToSql()
}

func (q queryBuilder) selectByID(id string) (string, []any, error) {
	return q.sq.Select(documentColumns...).
		From(documentsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
}

func (q queryBuilder) selectLiveByIDs(ids []string) (string, []any, error) {
	return q.sq.Select(documentColumns...).
		From(documentsTable).
		Where(sq.Eq{"id": ids}).
		Where(sq.Eq{"deleted": false}).
		ToSql()
}

func (q queryBuilder) insert(doc models.Document, now time.Time) (string, []any, error) {
	body, err := marshalBody(doc.Fields)
	if err != nil {
		return "", nil, err
	}

	return q.sq.Insert(documentsTable).
		Columns("id", "rev", "kind", "deleted", "body", "updated_at").
		Values(doc.ID, doc.Rev, doc.Kind, doc.Deleted, body, now).
		ToSql()
}

// update replaces the row of doc only while it still holds prevRev, so a
// concurrent writer that got there first makes it affect no rows.
func (q queryBuilder) update(doc models.Document, prevRev string, now time.Time) (string, []any, error) {
	body, err := marshalBody(doc.Fields)
	if err != nil {
		return "", nil, err
	}

	return q.sq.Update(documentsTable).
		Set("rev", doc.Rev).
		Set("kind", doc.Kind).
		Set("deleted", doc.Deleted).
		Set("body", body).
		Set("updated_at", now).
		Where(sq.Eq{"id": doc.ID, "rev": prevRev}).
		ToSql()
}

func buildError(err error) error {
	return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
}
