package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kisanmitra/agri-advisor/internal/auth"
)

func newTokenCmd() *cobra.Command {
	var subject, secret string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" || ttl == 0 {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				if secret == "" {
					secret = cfg.Auth.JWTSecret
				}
				if ttl == 0 {
					ttl = cfg.Auth.TokenTTL
				}
			}
			issuer := auth.NewIssuer(secret, ttl)
			if !issuer.Enabled() {
				return fmt.Errorf("no signing secret: pass --secret or set AGRI_AUTH_JWT_SECRET")
			}
			token, err := issuer.GenerateJWT(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "client name stored in the token")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret, defaults to the configured one")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to the configured one")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
