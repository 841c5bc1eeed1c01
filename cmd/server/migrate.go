package main

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/indias-got-voice/internal/database"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(*cobra.Command, []string) error {
		return withDB(func(m dbDeps) error { return database.MigrateUp(m.db, m.log) })
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(*cobra.Command, []string) error {
		return withDB(func(m dbDeps) error { return database.MigrateDown(m.db, migrateSteps, m.log) })
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}
