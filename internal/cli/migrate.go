package cli

import (
	"github.com/spf13/cobra"

	"github.com/Proton-105/geogate/internal/database"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		db, err := app.openDB(cmd.Context())
		if err != nil {
			return err
		}

		migrator := database.NewMigrator(db, app.log)
		return migrator.ApplyDir(cmd.Context(), migrationsDir)
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "internal/database/migrations", "directory containing .up.sql migrations")

	rootCmd.AddCommand(migrateCmd)
}
