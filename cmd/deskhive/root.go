// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the DeskHive CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deskhive",
		Short: "DeskHive - multi-tenant helpdesk authentication service",
		Long: `DeskHive manages helpdesk agent credentials and session tokens:
login, first-time password setup, password reset and request-time
token verification, backed by PostgreSQL.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
