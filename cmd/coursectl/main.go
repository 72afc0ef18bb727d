// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command coursectl is the operator CLI for the Academia marketplace.
//
// Subcommands:
//
//	coursectl migrate up|down|version
//	coursectl recover [--transaction ID] [--all]
//	coursectl token --user ID --role teacher
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taibuivan/academia/internal/platform/constants"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "coursectl",
		Short:         "Operator tooling for the Academia course marketplace",
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(recoverCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
