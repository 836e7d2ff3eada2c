package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MKhiriev/go-doc-sync/models"
)

const uiDivider = "──────────────────────────────────────────────────────"

// renderFields renders the category fields of doc as sorted key=value pairs.
func renderFields(doc models.Document) string {
	keys := make([]string, 0, len(doc.Fields))
	for k := range doc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, doc.Fields[k]))
	}
	return strings.Join(pairs, " ")
}

func shortRev(rev string) string {
	gen, hash, ok := strings.Cut(rev, "-")
	if !ok {
		return fitText(rev, 10)
	}
	return gen + "-" + fitText(hash, 8)
}

func fitText(v string, max int) string {
	if max <= 0 || len(v) <= max {
		return v
	}
	if max <= 3 {
		return v[:max]
	}
	return v[:max-3] + "..."
}
