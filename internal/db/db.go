package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"
)

// connPragmas are applied by the driver to every new connection, so they hold
// for the whole pool and not just the first connection.
var connPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// dsn builds a modernc.org/sqlite data source name for path.
func dsn(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	if path == ":memory:" {
		return ":memory:?" + q.Encode()
	}
	q.Add("_pragma", "journal_mode(WAL)")
	if strings.HasPrefix(path, "file:") {
		return path + "?" + q.Encode()
	}
	return "file:" + path + "?" + q.Encode()
}

// Open opens the omara database at path, or a private in-memory database for
// ":memory:".
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to ":memory:" is its own database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database %s: %w", path, err)
	}
	return db, nil
}
