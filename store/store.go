// Package store provides response persistence behind the
// triage.ResponseStore contract: filesystem artifacts or an embedded SQLite
// database, selected by configuration.
package store

import (
	"github.com/teranos/triage/am"
	"github.com/teranos/triage/db"
	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/triage"
)

// Open constructs the configured response store. The returned closer
// releases any underlying resources and is safe to call once.
func Open(cfg am.DatabaseConfig, responsesDir string) (triage.ResponseStore, func() error, error) {
	switch cfg.Backend {
	case am.BackendFilesystem:
		fs, err := NewFSStore(responsesDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() error { return nil }, nil

	case am.BackendSQLite:
		conn, err := db.OpenWithMigrations(cfg.Path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to open sqlite database %s", cfg.Path)
		}
		return NewSQLStore(conn), conn.Close, nil

	default:
		return nil, nil, errors.Newf("unknown store backend %q", cfg.Backend)
	}
}
