// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/academia/internal/platform/constants"
	"github.com/taibuivan/academia/internal/platform/sec"
)

// tokenCmd mints access tokens for local development and smoke tests. The
// identity provider issues the real ones.
func tokenCmd() *cobra.Command {
	var (
		userID   string
		username string
		role     string
		ttl      time.Duration
		privPath string
		pubPath  string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens, err := sec.NewTokenService(privPath, pubPath, constants.AuthIssuer)
			if err != nil {
				return err
			}

			userRole := sec.UserRole(role)
			if !userRole.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}

			token, err := tokens.GenerateAccessToken(userID, username, userRole, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (uid claim)")
	cmd.Flags().StringVar(&username, "name", "", "display name (unm claim)")
	cmd.Flags().StringVar(&role, "role", string(sec.RoleStudent), "teacher, student or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&privPath, "private-key", os.Getenv("JWT_PRIVATE_KEY_PATH"), "PEM private key")
	cmd.Flags().StringVar(&pubPath, "public-key", os.Getenv("JWT_PUBLIC_KEY_PATH"), "PEM public key")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
