// Package trajdb persists recording episodes and their pose samples in
// SQLite.
package trajdb

import (
	"compress/gzip"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/marker-data/trajectory.report/internal/trajectory"
)

type DB struct {
	*sql.DB
}

//go:embed schema.sql
var schemaSQL string

// New opens (creating if needed) the trajectory database at path and
// ensures the schema exists.
func New(path string) (*DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialise trajectory schema: %w", err)
	}

	return db, nil
}

// Open opens the database without touching the schema. Used by the migrate
// command, where migrations own the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

// Episode is one persisted recording session.
type Episode struct {
	SessionID        string
	StartedUnixNanos int64
	StoppedUnixNanos int64
	SampleCount      int
}

// SaveEpisode stores a completed recording episode and all its samples in
// one transaction.
func (db *DB) SaveEpisode(sessionID string, started, stopped time.Time, samples []trajectory.PoseSample) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin episode transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO trajectory_sessions (session_id, started_unix_nanos, stopped_unix_nanos, sample_count)
		VALUES (?, ?, ?, ?)`,
		sessionID, started.UnixNano(), stopped.UnixNano(), len(samples))
	if err != nil {
		return fmt.Errorf("failed to insert session %s: %w", sessionID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO trajectory_samples (session_id, ts, frame, marker_id, x, y, z, rx, ry, rz)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.Exec(sessionID, s.Timestamp, s.Frame, s.MarkerID,
			s.X, s.Y, s.Z, s.RX, s.RY, s.RZ); err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	return tx.Commit()
}

// LoadEpisode returns all samples of an episode, ordered by marker then
// timestamp.
func (db *DB) LoadEpisode(sessionID string) ([]trajectory.PoseSample, error) {
	rows, err := db.Query(`
		SELECT ts, frame, marker_id, x, y, z, rx, ry, rz
		FROM trajectory_samples
		WHERE session_id = ?
		ORDER BY marker_id, ts`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []trajectory.PoseSample
	for rows.Next() {
		var s trajectory.PoseSample
		if err := rows.Scan(&s.Timestamp, &s.Frame, &s.MarkerID,
			&s.X, &s.Y, &s.Z, &s.RX, &s.RY, &s.RZ); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if samples == nil {
		return nil, fmt.Errorf("session %s has no samples", sessionID)
	}

	return samples, nil
}

// Episodes lists persisted sessions, most recent first.
func (db *DB) Episodes() ([]Episode, error) {
	rows, err := db.Query(`
		SELECT session_id, started_unix_nanos, COALESCE(stopped_unix_nanos, 0), sample_count
		FROM trajectory_sessions
		ORDER BY started_unix_nanos DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.SessionID, &e.StartedUnixNanos, &e.StoppedUnixNanos, &e.SampleCount); err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

// AttachAdminRoutes mounts SQL debugging and backup endpoints on mux.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://trajectory.db", db.DB, &tailsql.DBOptions{
		Label: "Trajectory DB",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
