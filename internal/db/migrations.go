package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: listing is always scoped to one owner and usually narrowed
	// by category.
	`CREATE INDEX IF NOT EXISTS idx_clothing_owner_category
	     ON clothing_items(owner_id, category)`,
	// Migration 2: expired revocations are purged by expiry.
	`CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires
	     ON revoked_tokens(expires_at)`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
