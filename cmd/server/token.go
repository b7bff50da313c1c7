package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	jwttoken "giyus/internal/jwt_token"
	"giyus/internal/platform/config"
)

type tokenOptions struct {
	Subject string
	Role    string
	TTL     time.Duration
}

// newTokenCmd mints an access token signed with the configured key, for local
// development and smoke tests.
func newTokenCmd() *cobra.Command {
	var opts tokenOptions

	cmd := &cobra.Command{
		Use:   "token --sub <actor-id> [--role admin]",
		Short: "Issue a signed access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.Subject) == "" {
				return errors.New("--sub is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("refusing to mint tokens in production")
			}
			svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
			token, err := svc.GenerateAccessToken(opts.Subject, opts.Role, opts.TTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Subject, "sub", "", "actor id recorded as proposer")
	cmd.Flags().StringVar(&opts.Role, "role", "volunteer", "role claim; admin is privileged")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
