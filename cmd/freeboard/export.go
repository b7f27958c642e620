package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/crest-data/freeboard.report/internal/export"
	"github.com/crest-data/freeboard.report/internal/store"
)

// runExport re-exports a stored session as CSV, most recent session when no
// id is given.
func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbFile := fs.String("db", "revanchas.db", "SQLite database path")
	sessionID := fs.String("session", "", "Session id, latest when empty")
	outDir := fs.String("out", ".", "Directory for the exported CSV")
	precision := fs.Int("precision", 3, "Decimal places for exported values")
	fs.Parse(args)

	st, err := store.NewStore(*dbFile)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	id := *sessionID
	if id == "" {
		sessions, err := st.ListSessions()
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(sessions) == 0 {
			return fmt.Errorf("no sessions in %s", *dbFile)
		}
		id = sessions[0].ID
		log.Printf("exporting latest session %s (%s, %d records)", id, sessions[0].Wall, sessions[0].Records)
	}

	sess, err := st.LoadSession(id)
	if err != nil {
		return fmt.Errorf("load session %s: %w", id, err)
	}

	csvPath := filepath.Join(*outDir, export.DefaultFilename(sess.Mode(), time.Now()))
	writer := export.Writer{Precision: *precision}
	if err := writer.WriteFile(csvPath, sess); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	log.Printf("wrote %s", csvPath)
	return nil
}
