package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const DefaultDBName = "estate-harvester.db"

// Tables names the four tables. Names are interpolated into SQL and must be validated identifiers.
type Tables struct {
	Listings string
	Details  string
	State    string
	Runs     string
}

func DefaultTables() Tables {
	return Tables{Listings: "listings", Details: "details", State: "scraper_state", Runs: "crawl_runs"}
}

type DB struct {
	*sql.DB
	tables Tables
}

// openDB opens a SQLite database at the given path
func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is its own database
	if dbPath == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	}

	if _, err := sqlDB.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return sqlDB, nil
}

// Open opens or creates the SQLite database at dbPath and makes sure the schema exists.
func Open(dbPath string, tables Tables) (*DB, error) {
	if dbPath == "" {
		dbPath = DefaultDBName
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{
		DB:     sqlDB,
		tables: tables,
	}

	if err := db.InitSchema(); err != nil {
		_ = db.Close() // Close error less important than schema error
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates any missing tables and indexes.
func (db *DB) InitSchema() error {
	_, err := db.Exec(schemaFor(db.tables))
	return err
}
