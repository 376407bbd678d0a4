package storage

import (
	"database/sql"
	"fmt"
)

// InitSchema creates all required tables and indexes.
// This is idempotent - safe to call multiple times.
func InitSchema(db *sql.DB) error {
	ddlStatements := []string{
		// tokens table: one row per issued bearer token.
		// The token value itself is the primary key; uniqueness is enforced
		// by the store, not by check-then-insert in the application.
		`CREATE TABLE IF NOT EXISTS tokens (
			value TEXT PRIMARY KEY,
			role TEXT NOT NULL CHECK (role IN ('user', 'admin')),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_tokens_created_at ON tokens(created_at)`,

		// usages table: append-only log of authenticated API calls.
		// Deliberately no foreign key to tokens: usage rows are historical
		// records and must survive token deletion.
		`CREATE TABLE IF NOT EXISTS usages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_usages_token ON usages(token)`,
		`CREATE INDEX IF NOT EXISTS idx_usages_token_timestamp ON usages(token, timestamp DESC)`,
	}

	for _, stmt := range ddlStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}
