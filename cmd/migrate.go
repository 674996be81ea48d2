package cmd

import (
	"context"
	"log"

	"tuneshelf/config"
	"tuneshelf/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		sqlDB, err := db.Connect(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer sqlDB.Close()

		if err := db.NewMigrator(sqlDB).Run(context.Background()); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
