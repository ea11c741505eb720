// Package database manages the SQLite metadata store connection and its
// schema migrations.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Open opens (creating if necessary) the SQLite metadata store at path
// and brings its schema up to date.
func Open(path string, logger *zap.Logger) (*sql.DB, error) {
	// busy_timeout covers a rescan racing a slow query from a previous
	// session; WAL keeps readers unblocked during the delete+insert
	// replace.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping metadata store: %w", err)
	}

	if err := RunMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate metadata store: %w", err)
	}

	logger.Info("Metadata store ready", zap.String("path", path))
	return db, nil
}
