package cli

import (
	"log"

	"github.com/acavel/qrservice/cmd"
	"github.com/acavel/qrservice/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// MigrateCmd runs the schema migration against the configured database file
// without starting the server.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Run: func(cobraCmd *cobra.Command, args []string) {
		db := openDB()
		if err := db.AutoMigrate(&models.TrackedQR{}, &models.ScanEvent{}); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Printf("Database migrated: %s", cmd.Cfg.Database.Path)
	},
}

// openDB opens the configured SQLite file with WAL journaling for the CLI
// commands.
func openDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(cmd.Cfg.Database.Path), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		log.Fatalf("Failed to enable WAL: %v", err)
	}
	return db
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}
