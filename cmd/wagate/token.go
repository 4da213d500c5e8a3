package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/memohai/wagate/cmd/wagate/modules"
	"github.com/memohai/wagate/internal/auth"
	"github.com/memohai/wagate/internal/boot"
)

func newTokenCommand(configPath *string) *cobra.Command {
	var (
		userID    string
		companyID string
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed JWT for a tenant (development use)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(userID) == "" {
				return errors.New("--user is required")
			}
			cfg, err := modules.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			rc, err := boot.ProvideRuntimeConfig(cfg)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = rc.JwtExpiresIn
			}
			tok, expiresAt, err := auth.GenerateToken(userID, companyID, rc.JwtSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "tenant (user) id")
	cmd.Flags().StringVar(&companyID, "company", "", "company id whose users receive broadcasts")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.jwt_expires_in)")
	return cmd
}
