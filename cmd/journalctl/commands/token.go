package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/benvon/daily-journal/internal/middleware"
	"github.com/spf13/cobra"
)

// NewTokenCmd creates the token command, which signs admin API bearer tokens
func NewTokenCmd(secret func() ([]byte, error)) *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin API token",
		Long:  "Sign a bearer token for /api/v1 with ADMIN_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				return errors.New("--subject is required")
			}
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}
			key, err := secret()
			if err != nil {
				return err
			}
			token, err := middleware.NewAdminToken(key, subject, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "who the token is issued to")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
