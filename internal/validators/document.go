package validators

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MKhiriev/go-doc-sync/models"
)

// Field name constants used to restrict validation of a document to a subset
// of its parts.
const (
	// FieldID targets the document identity.
	FieldID = "id"

	// FieldRev targets the revision token.
	FieldRev = "rev"

	// FieldKind targets the category.
	FieldKind = "kind"

	// FieldFields targets the names of the category-specific fields.
	FieldFields = "fields"
)

// Limits of the store API.
const (
	MaxIDLength   = 256
	MaxKindLength = 64
	MaxBulkItems  = 1000
)

var (
	revisionPattern = regexp.MustCompile(`^[1-9][0-9]*-[0-9a-f]+$`)

	allDocumentFields = []string{FieldID, FieldRev, FieldKind, FieldFields}
)

type DocumentValidator struct {
}

func NewDocumentValidator() Validator {
	return &DocumentValidator{}
}

func (v *DocumentValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.Document:
		return v.validateDocument(ctx, value, fields...)
	case *models.Document:
		return v.validateDocument(ctx, *value, fields...)

	case models.DocRef:
		return v.validateRef(value)
	case *models.DocRef:
		return v.validateRef(*value)

	case models.BulkDocsRequest:
		return v.validateBulkDocs(ctx, value, fields...)
	case *models.BulkDocsRequest:
		return v.validateBulkDocs(ctx, *value, fields...)

	case models.BulkGetRequest:
		return v.validateBulkGet(value)
	case *models.BulkGetRequest:
		return v.validateBulkGet(*value)

	case models.BulkRemoveRequest:
		return v.validateBulkRemove(value)
	case *models.BulkRemoveRequest:
		return v.validateBulkRemove(*value)

	default:
		return ErrUnsupportedType
	}
}

// validateDocument checks the named parts of doc, or all of them when no
// field is named.
func (v *DocumentValidator) validateDocument(_ context.Context, doc models.Document, fields ...string) error {
	if len(fields) == 0 {
		fields = allDocumentFields
	}

	for _, field := range fields {
		var err error
		switch field {
		case FieldID:
			err = validateID(doc.ID)
		case FieldRev:
			if doc.Rev != "" {
				err = validateRevision(doc.Rev)
			}
		case FieldKind:
			err = validateKind(doc.Kind)
		case FieldFields:
			err = validateFieldNames(doc.Fields)
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *DocumentValidator) validateRef(ref models.DocRef) error {
	if err := validateID(ref.ID); err != nil {
		return err
	}
	if ref.Rev == "" {
		return fmt.Errorf("%w: %s", ErrMissingRevision, ref.ID)
	}
	return validateRevision(ref.Rev)
}

func (v *DocumentValidator) validateBulkDocs(ctx context.Context, req models.BulkDocsRequest, fields ...string) error {
	if len(req.Docs) > MaxBulkItems {
		return fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(req.Docs), MaxBulkItems)
	}

	seen := make(map[string]struct{}, len(req.Docs))
	for i, doc := range req.Docs {
		if err := v.validateDocument(ctx, doc, fields...); err != nil {
			return fmt.Errorf("docs[%d]: %w", i, err)
		}
		if _, dup := seen[doc.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, doc.ID)
		}
		seen[doc.ID] = struct{}{}
	}
	return nil
}

func (v *DocumentValidator) validateBulkGet(req models.BulkGetRequest) error {
	if len(req.IDs) > MaxBulkItems {
		return fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(req.IDs), MaxBulkItems)
	}
	for i, id := range req.IDs {
		if err := validateID(id); err != nil {
			return fmt.Errorf("ids[%d]: %w", i, err)
		}
	}
	return nil
}

func (v *DocumentValidator) validateBulkRemove(req models.BulkRemoveRequest) error {
	if len(req.Refs) > MaxBulkItems {
		return fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(req.Refs), MaxBulkItems)
	}

	seen := make(map[string]struct{}, len(req.Refs))
	for i, ref := range req.Refs {
		if err := v.validateRef(ref); err != nil {
			return fmt.Errorf("refs[%d]: %w", i, err)
		}
		if _, dup := seen[ref.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, ref.ID)
		}
		seen[ref.ID] = struct{}{}
	}
	return nil
}

func validateID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidID)
	case len(id) > MaxIDLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidID, MaxIDLength)
	case !utf8.ValidString(id):
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidID)
	case strings.ContainsFunc(id, unicode.IsControl):
		return fmt.Errorf("%w: control characters", ErrInvalidID)
	}
	return nil
}

func validateRevision(rev string) error {
	if !revisionPattern.MatchString(rev) {
		return fmt.Errorf("%w: %q", ErrInvalidRevision, rev)
	}
	return nil
}

// validateKind accepts the empty kind of documents that are never
// synchronized.
func validateKind(kind string) error {
	switch {
	case len(kind) > MaxKindLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKind, MaxKindLength)
	case strings.ContainsFunc(kind, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }):
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return nil
}

func validateFieldNames(fields map[string]any) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if name == "" || strings.HasPrefix(name, "_") {
			return fmt.Errorf("%w: %q", ErrReservedField, name)
		}
	}
	return nil
}
