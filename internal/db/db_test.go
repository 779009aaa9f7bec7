package db

import (
	"strings"
	"testing"
)

func TestMigrateIdempotent(t *testing.T) {
	database := NewTestDB(t)

	// NewTestDB already migrated once.
	if err := Migrate(database); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var n int
	err := database.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_clothing_owner_category'`,
	).Scan(&n)
	if err != nil {
		t.Fatalf("querying indexes: %v", err)
	}
	if n != 1 {
		t.Errorf("expected owner/category index, found %d", n)
	}
}

func TestConnectionPragmas(t *testing.T) {
	database := NewTestDB(t)

	var fk int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("reading foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		path       string
		wantPrefix string
		wal        bool
	}{
		{":memory:", ":memory:?", false},
		{"omara.sqlite3", "file:omara.sqlite3?", true},
		{"file:/var/lib/omara.db", "file:/var/lib/omara.db?", true},
	}
	for _, tt := range tests {
		got := dsn(tt.path)
		if !strings.HasPrefix(got, tt.wantPrefix) {
			t.Errorf("dsn(%q) = %q, want prefix %q", tt.path, got, tt.wantPrefix)
		}
		if strings.Contains(got, "journal_mode") != tt.wal {
			t.Errorf("dsn(%q) = %q, WAL expected %v", tt.path, got, tt.wal)
		}
	}
}
