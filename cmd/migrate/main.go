package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ignite/leadgen-crm/internal/app"
	"github.com/ignite/leadgen-crm/internal/pkg/distlock"
	"github.com/ignite/leadgen-crm/internal/repository/postgres"
)

func main() {
	dir := "migrations"
	listOnly := false
	for _, a := range os.Args[1:] {
		if a == "--list" {
			listOnly = true
		} else {
			dir = a
		}
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := app.OpenDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if listOnly {
		applied, err := postgres.AppliedMigrations(ctx, db)
		if err != nil {
			log.Fatal(err)
		}
		for _, m := range applied {
			fmt.Printf("  %s  %s\n", m.AppliedAt.Format(time.RFC3339), m.Filename)
		}
		fmt.Printf("Total: %d applied\n", len(applied))
		return
	}

	migrations, err := postgres.LoadMigrations(os.DirFS(dir))
	if err != nil {
		log.Fatalf("migrations dir %s: %v", dir, err)
	}

	// Concurrent deploys race on the same schema; only one may migrate.
	lock := distlock.NewPGAdvisoryLock(db, "migrate")
	err = distlock.WithLock(ctx, lock, func(ctx context.Context) error {
		ran, err := postgres.Migrate(ctx, db, migrations)
		for _, name := range ran {
			fmt.Printf("  %s ... OK\n", name)
		}
		if err != nil {
			return err
		}
		log.Printf("Done: %d applied, %d already current", len(ran), len(migrations)-len(ran))
		return nil
	})
	if errors.Is(err, distlock.ErrNotAcquired) {
		log.Fatal("another migration is in progress")
	}
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("Migrations complete")
}
