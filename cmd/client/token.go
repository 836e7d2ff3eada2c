package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/spf13/cobra"
)

func newTokenCmd(opts *options) *cobra.Command {
	var (
		signKey  string
		issuer   string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a peer token for a store server with token authentication",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.peerID == "" {
				return errors.New("--peer is required")
			}

			overlay := opts.overlay()
			overlay.Auth = config.Auth{TokenSignKey: signKey, TokenIssuer: issuer, TokenDuration: duration}
			auth, err := config.GetTokenConfig(overlay)
			if err != nil {
				return err
			}

			token, err := utils.GeneratePeerToken(auth.TokenIssuer, opts.peerID, auth.TokenDuration, auth.TokenSignKey)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token.SignedString)
			return nil
		},
	}

	cmd.Flags().StringVar(&signKey, "sign-key", "", "token signing key shared with the store server")
	cmd.Flags().StringVar(&issuer, "issuer", "", "token issuer")
	cmd.Flags().DurationVar(&duration, "duration", 0, "token lifetime")
	return cmd
}
