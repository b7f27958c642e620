// Package store persists measurement sessions and their per-station records
// in sqlite. The schema is bootstrapped on open; versioned migrations are
// available for deployments that need controlled schema evolution.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/crest-data/freeboard.report/internal/measure"
)

type Store struct {
	*sql.DB
}

// NewStore opens or creates a sqlite database at path and ensures the
// schema exists.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id        TEXT PRIMARY KEY,
			wall              TEXT,
			mode              TEXT,
			created_at        TEXT
		);
		CREATE TABLE IF NOT EXISTS records (
			session_id        TEXT,
			chainage          DOUBLE,
			pk                TEXT,
			crown_set         INTEGER DEFAULT 0,
			crown_offset      DOUBLE,
			crown_elevation   DOUBLE,
			crown_auto        INTEGER DEFAULT 0,
			lama_set          INTEGER DEFAULT 0,
			lama_offset       DOUBLE,
			lama_elevation    DOUBLE,
			lama_auto         INTEGER DEFAULT 0,
			width_set         INTEGER DEFAULT 0,
			width_left_off    DOUBLE,
			width_left_elev   DOUBLE,
			width_right_off   DOUBLE,
			width_right_elev  DOUBLE,
			width_distance    DOUBLE,
			width_ref_elev    DOUBLE,
			width_auto        INTEGER DEFAULT 0,
			updated_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, chainage),
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &Store{db}, nil
}

// SaveSession upserts the session row. Records are saved separately.
func (s *Store) SaveSession(sess *measure.Session) error {
	_, err := s.Exec(`
		INSERT INTO sessions (session_id, wall, mode, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			wall=excluded.wall,
			mode=excluded.mode`,
		sess.ID(), sess.Wall(), string(sess.Mode()), sess.CreatedAt().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SaveRecord upserts one station record for a session.
func (s *Store) SaveRecord(sessionID string, rec measure.Record) error {
	return s.saveRecord(s.DB, sessionID, rec)
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func (s *Store) saveRecord(e execer, sessionID string, rec measure.Record) error {
	_, err := e.Exec(`
		INSERT INTO records (
			session_id, chainage, pk,
			crown_set, crown_offset, crown_elevation, crown_auto,
			lama_set, lama_offset, lama_elevation, lama_auto,
			width_set, width_left_off, width_left_elev,
			width_right_off, width_right_elev,
			width_distance, width_ref_elev, width_auto,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id, chainage) DO UPDATE SET
			pk=excluded.pk,
			crown_set=excluded.crown_set,
			crown_offset=excluded.crown_offset,
			crown_elevation=excluded.crown_elevation,
			crown_auto=excluded.crown_auto,
			lama_set=excluded.lama_set,
			lama_offset=excluded.lama_offset,
			lama_elevation=excluded.lama_elevation,
			lama_auto=excluded.lama_auto,
			width_set=excluded.width_set,
			width_left_off=excluded.width_left_off,
			width_left_elev=excluded.width_left_elev,
			width_right_off=excluded.width_right_off,
			width_right_elev=excluded.width_right_elev,
			width_distance=excluded.width_distance,
			width_ref_elev=excluded.width_ref_elev,
			width_auto=excluded.width_auto,
			updated_at=CURRENT_TIMESTAMP`,
		sessionID, rec.Chainage, rec.PK,
		rec.Crown.Set, rec.Crown.Offset, rec.Crown.Elevation, rec.Crown.Automatic,
		rec.Lama.Set, rec.Lama.Offset, rec.Lama.Elevation, rec.Lama.Automatic,
		rec.Width.Set, rec.Width.Left.Offset, rec.Width.Left.Elevation,
		rec.Width.Right.Offset, rec.Width.Right.Elevation,
		rec.Width.Distance, rec.Width.RefElevation, rec.Width.Automatic)
	if err != nil {
		return fmt.Errorf("save record %s: %w", rec.PK, err)
	}
	return nil
}

// SaveAll writes the session row and every record in one transaction.
func (s *Store) SaveAll(sess *measure.Session) error {
	if err := s.SaveSession(sess); err != nil {
		return err
	}
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	for _, rec := range sess.Records() {
		if err := s.saveRecord(tx, sess.ID(), rec); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadSession rebuilds a session and its records from the database.
func (s *Store) LoadSession(id string) (*measure.Session, error) {
	var wall, mode, created string
	err := s.QueryRow(
		`SELECT wall, mode, created_at FROM sessions WHERE session_id = ?`, id,
	).Scan(&wall, &mode, &created)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("load session %s: bad created_at %q: %w", id, created, err)
	}

	sess, err := measure.RestoreSession(id, wall, measure.Mode(mode), createdAt)
	if err != nil {
		return nil, err
	}

	rows, err := s.Query(`
		SELECT chainage, pk,
			crown_set, crown_offset, crown_elevation, crown_auto,
			lama_set, lama_offset, lama_elevation, lama_auto,
			width_set, width_left_off, width_left_elev,
			width_right_off, width_right_elev,
			width_distance, width_ref_elev, width_auto
		FROM records WHERE session_id = ? ORDER BY chainage`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec measure.Record
		err := rows.Scan(&rec.Chainage, &rec.PK,
			&rec.Crown.Set, &rec.Crown.Offset, &rec.Crown.Elevation, &rec.Crown.Automatic,
			&rec.Lama.Set, &rec.Lama.Offset, &rec.Lama.Elevation, &rec.Lama.Automatic,
			&rec.Width.Set, &rec.Width.Left.Offset, &rec.Width.Left.Elevation,
			&rec.Width.Right.Offset, &rec.Width.Right.Elevation,
			&rec.Width.Distance, &rec.Width.RefElevation, &rec.Width.Automatic)
		if err != nil {
			return nil, err
		}
		sess.Put(rec)
	}
	return sess, rows.Err()
}

// SessionInfo summarizes a stored session for listings.
type SessionInfo struct {
	ID        string
	Wall      string
	Mode      measure.Mode
	CreatedAt time.Time
	Records   int
}

// ListSessions returns stored sessions newest first.
func (s *Store) ListSessions() ([]SessionInfo, error) {
	rows, err := s.Query(`
		SELECT s.session_id, s.wall, s.mode, s.created_at, COUNT(r.chainage)
		FROM sessions s
		LEFT JOIN records r ON r.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var mode, created string
		if err := rows.Scan(&info.ID, &info.Wall, &mode, &created, &info.Records); err != nil {
			return nil, err
		}
		info.Mode = measure.Mode(mode)
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("session %s: bad created_at %q: %w", info.ID, created, err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its records.
func (s *Store) DeleteSession(id string) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM records WHERE session_id = ?`, id); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE session_id = ?`, id); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
