// Package database is the persistence gateway: load/save/clear of the full
// frame collection against a local SQLite file.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the database file and ensures the schema exists.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return db, nil
}

func (db *DB) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS project_frames (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		timestamp REAL NOT NULL,
		image BLOB,
		enhanced_image BLOB,
		analysis TEXT,
		selected INTEGER NOT NULL DEFAULT 0,
		applied_enhancements TEXT
	);
	`
	_, err := db.conn.Exec(query)
	return err
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the raw connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}
