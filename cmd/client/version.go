package main

import (
	"fmt"

	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/spf13/cobra"
)

func newVersionCmd(info models.AppBuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Build version: %s\n", info.BuildVersion())
			fmt.Fprintf(out, "Build date: %s\n", info.BuildDate())
			fmt.Fprintf(out, "Build commit: %s\n", info.BuildCommit())
		},
	}
}
