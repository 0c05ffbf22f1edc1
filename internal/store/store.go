package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zzmio78/wrdrv/internal/scan"
)

// DB persists scan sessions and per-loop access point observations.
type DB struct {
	*sql.DB
	sessionID int64
}

// Observation is one persisted sighting of an access point.
type Observation struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Loop      int       `json:"loop"`
	BSSID     string    `json:"bssid"`
	ESSID     string    `json:"essid"`
	Channel   int       `json:"channel"`
	SignalDBM float64   `json:"signal_dbm"`
	Security  string    `json:"security"`
	WPS       bool      `json:"wps"`
	SeenAt    time.Time `json:"seen_at"`
}

// SessionSummary aggregates one stored scan session.
type SessionSummary struct {
	ID         int64        `json:"id"`
	Interface  string       `json:"interface"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt sql.NullTime `json:"finished_at"`
	Loops      int          `json:"loops"`
	APCount    int          `json:"ap_count"`
}

// Initialize opens (creating if necessary) the results database.
func Initialize(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scan_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		interface TEXT NOT NULL,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME,
		loops INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES scan_sessions(id),
		loop INTEGER NOT NULL,
		bssid TEXT NOT NULL,
		essid TEXT,
		channel INTEGER,
		signal_dbm REAL,
		security TEXT,
		wps BOOLEAN DEFAULT FALSE,
		seen_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_observations_session ON observations(session_id);
	CREATE INDEX IF NOT EXISTS idx_observations_bssid ON observations(bssid);
	`

	_, err := db.Exec(schema)
	return err
}

// BeginSession records the start of a scan session on the given interface.
func (db *DB) BeginSession(ctx context.Context, iface string) error {
	result, err := db.ExecContext(ctx,
		`INSERT INTO scan_sessions (interface) VALUES (?)`, iface)
	if err != nil {
		return err
	}
	db.sessionID, err = result.LastInsertId()
	return err
}

// RecordLoop stores one loop's records under the current session. It
// implements scan.Recorder.
func (db *DB) RecordLoop(ctx context.Context, loop int, records []scan.AccessPoint) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (session_id, loop, bssid, essid, channel, signal_dbm, security, wps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ap := range records {
		if _, err := stmt.ExecContext(ctx, db.sessionID, loop,
			ap.BSSID, ap.ESSID, ap.Channel, ap.SignalDBM, ap.SecurityLabel(), ap.WPS); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE scan_sessions SET loops = ? WHERE id = ?`, loop, db.sessionID); err != nil {
		return err
	}

	return tx.Commit()
}

// FinishSession stamps the current session as complete.
func (db *DB) FinishSession(ctx context.Context) error {
	_, err := db.ExecContext(ctx,
		`UPDATE scan_sessions SET finished_at = CURRENT_TIMESTAMP WHERE id = ?`, db.sessionID)
	return err
}

// TopObservations returns the strongest distinct access points of a session,
// strongest first.
func (db *DB) TopObservations(ctx context.Context, sessionID int64, limit int) ([]Observation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, session_id, loop, bssid, COALESCE(essid, ''), channel, signal_dbm,
		       COALESCE(security, ''), wps, seen_at
		FROM observations
		WHERE session_id = ? AND id IN (
			SELECT MAX(id) FROM observations WHERE session_id = ? GROUP BY bssid
		)
		ORDER BY signal_dbm DESC
		LIMIT ?
	`, sessionID, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obs []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.ID, &o.SessionID, &o.Loop, &o.BSSID, &o.ESSID,
			&o.Channel, &o.SignalDBM, &o.Security, &o.WPS, &o.SeenAt); err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// Sessions lists stored sessions, newest first.
func (db *DB) Sessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT s.id, s.interface, s.started_at, s.finished_at, s.loops,
		       (SELECT COUNT(DISTINCT bssid) FROM observations WHERE session_id = s.id)
		FROM scan_sessions s
		ORDER BY s.started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.ID, &s.Interface, &s.StartedAt, &s.FinishedAt, &s.Loops, &s.APCount); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SessionID returns the identifier of the session begun on this handle.
func (db *DB) SessionID() int64 {
	return db.sessionID
}
