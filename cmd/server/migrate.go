package main

import (
	"github.com/spf13/cobra"

	"github.com/yukikurage/taskboard-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := database.Connect(cfg); err != nil {
			return err
		}
		return database.MigrateDatabase(database.GetDB())
	},
}
