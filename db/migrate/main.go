package main

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/onurcolak/telegram-webhook-relay/environments"
	"github.com/onurcolak/telegram-webhook-relay/pkg/database"
	"github.com/onurcolak/telegram-webhook-relay/pkg/logger"
)

// Applies the delivery log and session migrations without starting the relay.
func main() {
	var status bool

	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.BoolVar(&status, "status", false, "print migration status instead of migrating")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid arguments: %v", err)
	}

	cfg := environments.Load()
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	if status {
		if err := database.MigrationStatus(db); err != nil {
			log.Fatalf("Failed to read migration status: %v", err)
		}
		return
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")
}
