package store

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-doc-sync/models"
	"golang.org/x/crypto/blake2b"
)

// nextRevision derives the revision that follows prev for doc:
// "<generation>-<digest>", where digest is the first 16 bytes of the
// BLAKE2b-256 sum of the canonical encoding of the new content.
func nextRevision(prev string, doc models.Document) (string, error) {
	payload, err := marshalBody([]any{doc.ID, prev, doc.Kind, doc.Deleted, doc.Fields})
	if err != nil {
		return "", err
	}

	sum := blake2b.Sum256(payload)
	return fmt.Sprintf("%d-%s", generation(prev)+1, hex.EncodeToString(sum[:16])), nil
}

// generation returns the numeric prefix of rev, 0 for an empty or
// malformed revision.
func generation(rev string) int {
	prefix, _, found := strings.Cut(rev, "-")
	if !found {
		return 0
	}

	gen, err := strconv.Atoi(prefix)
	if err != nil || gen < 0 {
		return 0
	}
	return gen
}
