package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/MKhiriev/go-doc-sync/internal/projection"
	"github.com/spf13/cobra"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [kind]",
		Short: "List the documents of the synchronized categories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cleanup, err := opts.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			views := session.Views()
			if len(args) == 1 {
				v, ok := session.View(args[0])
				if !ok {
					return fmt.Errorf("category %q is not synchronized", args[0])
				}
				views = []*projection.View{v}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tID\tREV\tFIELDS")
			for _, v := range views {
				for _, doc := range v.State().Items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", doc.Kind, doc.ID, doc.Rev, formatFields(doc.Fields))
				}
			}
			return w.Flush()
		},
	}
}

func formatFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(pairs, " ")
}
