// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/store"
)

// NewMigrateCmd creates the migrate subcommand and its actions.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back and inspect schema migrations on the PostgreSQL database.`,
	}

	cmd.PersistentFlags().String("database.url", "", "PostgreSQL connection URL")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  runMigrateAction(migrateUp),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			RunE:  runMigrateAction(migrateDown),
		},
		&cobra.Command{
			Use:   "steps <n>",
			Short: "Apply n migrations (negative rolls back)",
			Args:  cobra.ExactArgs(1),
			RunE:  runMigrateAction(migrateSteps),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current migration version",
			RunE:  runMigrateAction(migrateVersion),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Force the migration version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE:  runMigrateAction(migrateForce),
		},
	)

	return cmd
}

// runMigrateAction loads configuration, opens a Migrator and hands it to the
// action. Closing is best-effort once the action has run.
func runMigrateAction(action func(cmd *cobra.Command, args []string, m *store.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return oops.Code("CONFIG_INVALID").Errorf("database URL is required (flag --database.url or config key database.url)")
		}

		m, err := store.NewMigrator(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil {
				cmd.PrintErrln("warning: failed to close migrator:", closeErr)
			}
		}()

		return action(cmd, args, m)
	}
}

func migrateUp(cmd *cobra.Command, _ []string, m *store.Migrator) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}

	cmd.Printf("Applying %d migration(s)...\n", len(pending))
	if err := m.Up(); err != nil {
		return err
	}
	for _, v := range pending {
		name, nameErr := store.MigrationName(v)
		if nameErr != nil {
			return nameErr
		}
		cmd.Printf("  applied %s\n", name)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func migrateDown(cmd *cobra.Command, _ []string, m *store.Migrator) error {
	if err := m.Down(); err != nil {
		return err
	}
	cmd.Println("All migrations rolled back")
	return nil
}

func migrateSteps(cmd *cobra.Command, args []string, m *store.Migrator) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return oops.Code("MIGRATION_INVALID_STEPS").With("arg", args[0]).Wrap(err)
	}
	if err := m.Steps(n); err != nil {
		return err
	}
	cmd.Printf("Applied %d step(s)\n", n)
	return nil
}

func migrateVersion(cmd *cobra.Command, _ []string, m *store.Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 && !dirty {
		cmd.Println("No migrations applied")
		return nil
	}

	state := "clean"
	if dirty {
		state = "dirty"
	}
	name, err := store.MigrationName(version)
	if err != nil {
		return err
	}
	cmd.Printf("Version: %d (%s) %s\n", version, state, name)
	return nil
}

func migrateForce(cmd *cobra.Command, args []string, m *store.Migrator) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return oops.Code("MIGRATION_INVALID_VERSION").With("arg", args[0]).Wrap(err)
	}
	if err := m.Force(version); err != nil {
		return err
	}
	cmd.Printf("Forced version to %d\n", version)
	return nil
}
