package main

import (
	"fmt"
	"log"
	"os"

	"github.com/marker-data/trajectory.report/internal/trajdb"
)

// defaultMigrationsDir is where the migrate subcommand looks for SQL
// migration files.
const defaultMigrationsDir = "internal/trajdb/migrations"

// runMigrateCommand handles the 'migrate' subcommand dispatching. The
// database is opened without schema initialisation so the migrations own the
// schema from version zero.
func runMigrateCommand(args []string, dbPath string) {
	if len(args) < 1 {
		printMigrateHelp()
		os.Exit(1)
	}

	db, err := trajdb.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database %s: %v", dbPath, err)
	}
	defer db.Close()

	switch args[0] {
	case "up":
		log.Printf("running migrations...")
		if err := db.MigrateUp(defaultMigrationsDir); err != nil {
			log.Fatalf("migration up failed: %v", err)
		}
		version, dirty, _ := db.MigrateVersion(defaultMigrationsDir)
		log.Printf("migrations applied, now at version %d (dirty=%v)", version, dirty)

	case "down":
		log.Printf("rolling back one migration...")
		if err := db.MigrateDown(defaultMigrationsDir); err != nil {
			log.Fatalf("migration down failed: %v", err)
		}
		version, dirty, _ := db.MigrateVersion(defaultMigrationsDir)
		log.Printf("rolled back, now at version %d (dirty=%v)", version, dirty)

	case "status":
		version, dirty, err := db.MigrateVersion(defaultMigrationsDir)
		if err != nil {
			log.Fatalf("failed to read migration version: %v", err)
		}
		fmt.Printf("version: %d\ndirty: %v\n", version, dirty)

	case "help":
		printMigrateHelp()

	default:
		fmt.Printf("unknown migrate action: %s\n\n", args[0])
		printMigrateHelp()
		os.Exit(1)
	}
}

func printMigrateHelp() {
	fmt.Print(`Usage: trajectory-report migrate <action>

Actions:
  up       apply all pending migrations
  down     roll back the most recent migration
  status   print the current migration version
  help     show this help
`)
}
