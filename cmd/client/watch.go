package main

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-doc-sync/internal/tui"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *options) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the synchronized categories and follow their changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			session, cleanup, err := opts.openSession(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			// a remote change feed that fails for good ends the command
			go func() {
				select {
				case <-session.Done():
					if session.Err() != nil {
						cancel()
					}
				case <-ctx.Done():
				}
			}()

			if !plain {
				title := "docsync"
				if opts.sessionName != "" {
					title += " " + opts.sessionName
				}
				if err = tui.New(session, title).Run(ctx); err != nil {
					return err
				}
				return session.Err()
			}

			printer := tui.NewPrinter(cmd.OutOrStdout())
			unsubscribe := session.Bus().Subscribe(printer.Print)
			defer unsubscribe()

			for _, v := range session.Views() {
				printer.Print(models.Loaded(v.Category(), v.State().Items))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "watching as peer %s\n", session.PeerID())

			<-ctx.Done()
			return session.Err()
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print one line per notification instead of the interactive view")
	return cmd
}
