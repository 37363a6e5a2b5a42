package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bibhealth/strokerisk/internal/infrastructure/config"
	"github.com/bibhealth/strokerisk/pkg/auth"
)

func newTokenCmd() *cobra.Command {
	cfg := config.Load()
	var (
		secret     string
		privateKey string
		issuer     string
		userID     string
		roles      []string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT for the API and gRPC service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jwtCfg := auth.JWTConfig{Secret: secret, Issuer: issuer, Expiration: ttl}
			if privateKey != "" {
				pem, err := auth.LoadKeyFromFile(privateKey)
				if err != nil {
					return err
				}
				jwtCfg.PrivateKeyPEM = string(pem)
			}
			if jwtCfg.PrivateKeyPEM == "" && jwtCfg.Secret == "" {
				return errors.New("either --secret (or JWT_SECRET) or --private-key is required")
			}

			svc, err := auth.NewJWTService(jwtCfg)
			if err != nil {
				return err
			}

			id := uuid.New()
			if userID != "" {
				if id, err = uuid.Parse(userID); err != nil {
					return fmt.Errorf("invalid --user-id: %w", err)
				}
			}

			token, err := svc.GenerateToken(id, roles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&secret, "secret", cfg.JWTSecret, "HMAC signing secret")
	f.StringVar(&privateKey, "private-key", "", "PEM file with an RSA private key (RS256)")
	f.StringVar(&issuer, "issuer", cfg.JWTIssuer, "token issuer")
	f.StringVar(&userID, "user-id", "", "subject user id (random when empty)")
	f.StringSliceVar(&roles, "roles", []string{auth.RoleClinician}, "roles granted to the token")
	f.DurationVar(&ttl, "ttl", auth.DefaultExpiration, "token lifetime")

	return cmd
}
