package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/banshee-data/texture.report/internal/store"
)

func newMigrateCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the run database schema",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "texture.db", "database path")

	withDB := func(fn func(cmd *cobra.Command, db *store.DB, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			db, err := store.OpenWithoutMigrations(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			return fn(cmd, db, args)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withDB(func(cmd *cobra.Command, db *store.DB, args []string) error {
			if err := db.MigrateUp(); err != nil {
				return err
			}
			return printVersion(cmd, db)
		}),
	}
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: withDB(func(cmd *cobra.Command, db *store.DB, args []string) error {
			if err := db.MigrateDown(); err != nil {
				return err
			}
			return printVersion(cmd, db)
		}),
	}
	to := &cobra.Command{
		Use:   "to <version>",
		Short: "Migrate up or down to a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: withDB(func(cmd *cobra.Command, db *store.DB, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version number: %s", args[0])
			}
			if err := db.MigrateTo(uint(v)); err != nil {
				return err
			}
			return printVersion(cmd, db)
		}),
	}
	status := &cobra.Command{
		Use:     "version",
		Aliases: []string{"status"},
		Short:   "Print the current schema version",
		Args:    cobra.NoArgs,
		RunE: withDB(func(cmd *cobra.Command, db *store.DB, args []string) error {
			return printVersion(cmd, db)
		}),
	}

	cmd.AddCommand(up, down, to, status)
	return cmd
}

func printVersion(cmd *cobra.Command, db *store.DB) error {
	version, dirty, err := db.MigrateVersion()
	if err != nil {
		return err
	}
	latest, err := store.LatestVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d (latest %d, dirty: %v)\n", version, latest, dirty)
	if dirty {
		fmt.Fprintln(cmd.OutOrStdout(), "WARNING: a migration failed mid-execution; inspect the database before migrating again.")
	}
	return nil
}
