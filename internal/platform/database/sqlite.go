package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"licgate/internal/platform/config"
)

// Open connects to the sqlite database file and verifies the connection.
// Foreign keys are enabled so license deletion cascades to its log entries.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
