package db

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/logger"
)

// Open opens a SQLite database at the specified path with the pragmas the
// response store relies on: WAL for concurrent reads during a batch write,
// and a busy timeout so concurrent workers queue instead of failing.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to set busy timeout")
	}

	logger.Logger.Debugw("database opened",
		logger.FieldPath, path,
		"wal_mode", true)

	return db, nil
}

// OpenWithMigrations opens the database and applies any pending migrations
func OpenWithMigrations(path string) (*sql.DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to migrate %s", path)
	}
	return db, nil
}
