package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"sysbro/internal/config"
	"sysbro/internal/logger"
	"sysbro/internal/storage/sqlite"

	"github.com/golang-migrate/migrate/v4"
)

func main() {
	cfg := config.Load()

	op := flag.String("op", "", "operation: up, down, version, force")
	steps := flag.Int("steps", 0, "number of steps for up/down (0 = all), or the version for force")
	dbPath := flag.String("db", cfg.HistoryDBPath, "path to sqlite database file")
	flag.Parse()

	if *op == "" {
		fmt.Println("Usage: migrate -op=[up|down|version|force] -steps=[n] -db=[path]")
		os.Exit(1)
	}

	db, err := sqlite.NewSqliteDB(*dbPath, logger.New(cfg))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	m, err := sqlite.NewMigrator(db)
	if err != nil {
		log.Fatal(err)
	}

	switch *op {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-(*steps))
		} else {
			err = m.Down()
		}
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil {
			log.Fatal(verr)
		}
		fmt.Printf("Version: %d, Dirty: %v\n", v, dirty)
		return
	case "force":
		if *steps == 0 {
			log.Fatal("please specify version to force")
		}
		err = m.Force(*steps)
	default:
		log.Fatalf("unknown operation %q", *op)
	}

	switch {
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Println("No changes detected.")
	case err != nil:
		log.Fatalf("Migration failed: %v", err)
	default:
		fmt.Println("Migration success!")
	}
}
