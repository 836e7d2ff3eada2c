package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/spf13/cobra"
)

var errUpdateNeedsRef = errors.New("--update needs --id and --rev")

func newPutCmd(opts *options) *cobra.Command {
	var (
		id     string
		rev    string
		update bool
	)

	cmd := &cobra.Command{
		Use:   "put <kind> [key=value...]",
		Short: "Insert a document, or update one with --update",
		Long: "Insert a document, or update one with --update.\n\n" +
			"Values are decoded as JSON when possible (numbers, booleans, null,\n" +
			"arrays, objects) and kept as strings otherwise.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(args[1:])
			if err != nil {
				return err
			}
			if update && (id == "" || rev == "") {
				return errUpdateNeedsRef
			}
			if id == "" {
				id = utils.NewUUIDGenerator().Generate()
			}

			session, cleanup, err := opts.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			doc := models.Document{ID: id, Rev: rev, Kind: args[0], Fields: fields}

			var stored models.Document
			if update {
				stored, err = session.Update(cmd.Context(), doc)
			} else {
				stored, err = session.Insert(cmd.Context(), doc)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", stored.ID, stored.Rev)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "document identifier, generated for inserts when empty")
	cmd.Flags().StringVar(&rev, "rev", "", "current revision, required with --update")
	cmd.Flags().BoolVar(&update, "update", false, "update an existing document")
	return cmd
}

// parseFields parses key=value arguments into document fields.
func parseFields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, want key=value", arg)
		}
		if strings.HasPrefix(key, "_") || key == models.FieldKind {
			return nil, fmt.Errorf("field %q is reserved", key)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		fields[key] = value
	}
	return fields, nil
}
