package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/MKhiriev/go-doc-sync/internal/bus"
	"github.com/MKhiriev/go-doc-sync/models"
)

// Printer writes one line per notification. It is a bus subscriber.
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Print(a bus.Action) {
	n, ok := a.(models.Notification)
	if !ok {
		fmt.Fprintln(p.w, a.ActionType())
		return
	}

	origin := "local"
	if n.Meta.FromRemote {
		origin = "remote"
	}

	switch {
	case n.Type == models.ModelError:
		fmt.Fprintf(p.w, "%s %s: %v\n", n.Type, n.Meta.Operation, n.Err)
	case n.Type == models.Initialized:
		fmt.Fprintf(p.w, "%s %s\n", n.Type, n.Meta.Name)
	case n.Type == models.ModelInitialized:
		fmt.Fprintf(p.w, "%s %s\n", n.Type, n.Meta.Category)
	case n.IsRemove():
		refs := make([]string, 0, len(n.Refs))
		for _, r := range n.Refs {
			refs = append(refs, r.ID+"@"+shortRev(r.Rev))
		}
		fmt.Fprintf(p.w, "%s %s %s [%s]\n", n.Type, n.Meta.Category, origin, strings.Join(refs, " "))
	default:
		docs := make([]string, 0, len(n.Documents))
		for _, d := range n.Documents {
			docs = append(docs, d.ID+"@"+shortRev(d.Rev))
		}
		fmt.Fprintf(p.w, "%s %s %s [%s]\n", n.Type, n.Meta.Category, origin, strings.Join(docs, " "))
	}
}
