package main

import (
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/spf13/cobra"
)

func newRemoveCmd(opts *options) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "rm <id> <rev>",
		Short: "Remove a revision of a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cleanup, err := opts.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			return session.Remove(cmd.Context(), models.DocRef{ID: args[0], Rev: args[1]}, kind)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "category of the document")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}
