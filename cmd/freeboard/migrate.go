package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/crest-data/freeboard.report/internal/store"
)

// runMigrate manages the sqlite schema version: up, down, version and
// force <n> for recovering from a dirty state.
func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbFile := fs.String("db", "revanchas.db", "SQLite database path")
	migrationsDir := fs.String("migrations", "db/migrations", "Migrations directory")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: freeboard migrate [flags] up|down|version|force <n>")
	}

	st, err := store.NewStore(*dbFile)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	switch cmd := fs.Arg(0); cmd {
	case "up":
		if err := st.MigrateUp(*migrationsDir); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		log.Print("migrations applied")
	case "down":
		if err := st.MigrateDown(*migrationsDir); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		log.Print("migrations rolled back")
	case "version":
		version, dirty, err := st.MigrateVersion(*migrationsDir)
		if err != nil {
			return fmt.Errorf("migrate version: %w", err)
		}
		fmt.Printf("version %d dirty %v\n", version, dirty)
	case "force":
		if fs.NArg() < 2 {
			return fmt.Errorf("force needs a version number")
		}
		v, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return fmt.Errorf("bad version %q", fs.Arg(1))
		}
		if err := st.MigrateForce(*migrationsDir, v); err != nil {
			return fmt.Errorf("migrate force: %w", err)
		}
		log.Printf("forced version %d", v)
	default:
		return fmt.Errorf("unknown migrate command %q", cmd)
	}
	return nil
}
