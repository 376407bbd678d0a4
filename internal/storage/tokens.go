package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// tokenBytes is the entropy of a generated token value. 32 bytes gives
// 256 bits, making collisions astronomically unlikely.
const tokenBytes = 32

// generateTokenValue draws a new random token value.
func generateTokenValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token value: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
// The extended error code for UNIQUE constraint is 2067; 19 is the base
// constraint error code.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 2067 || (sqliteErr.Code()&0xFF) == sqlite3.SQLITE_CONSTRAINT {
			return true
		}
	}
	return false
}

// CreateToken generates a fresh random token value and persists it with the
// given role. The full record, including the secret value, is returned; this
// is the only time the caller sees the value alongside a success message.
// Returns ErrDuplicate on a value collision - the insert itself enforces
// uniqueness, so two concurrent creates can never both win with equal values.
func (s *SQLiteStorage) CreateToken(ctx context.Context, role Role) (*Token, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role: %q", role)
	}

	value, err := generateTokenValue()
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO tokens (value, role) VALUES (?, ?)",
		value, string(role))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	// Read back the row so CreatedAt carries the store's timestamp.
	return s.GetToken(ctx, value)
}

// SeedToken inserts a token with a caller-supplied value if it does not
// already exist. Used for the bootstrap admin token; idempotent.
func (s *SQLiteStorage) SeedToken(ctx context.Context, value string, role Role) error {
	if value == "" {
		return fmt.Errorf("seed token value cannot be empty")
	}
	if !role.Valid() {
		return fmt.Errorf("invalid role: %q", role)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO tokens (value, role) VALUES (?, ?)",
		value, string(role))
	if err != nil {
		return fmt.Errorf("failed to seed token: %w", err)
	}

	return nil
}

// GetToken retrieves a token by its value. This is the per-request
// authentication lookup. Returns ErrNotFound if the value doesn't exist.
func (s *SQLiteStorage) GetToken(ctx context.Context, value string) (*Token, error) {
	var t Token
	var role string

	err := s.db.QueryRowContext(ctx,
		"SELECT value, role, created_at FROM tokens WHERE value = ?",
		value).
		Scan(&t.Value, &role, &t.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	t.Role = Role(role)
	return &t, nil
}

// ListTokens returns all tokens, newest first.
// Returns empty slice if no tokens exist.
func (s *SQLiteStorage) ListTokens(ctx context.Context) ([]*Token, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT value, role, created_at FROM tokens ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var tokens []*Token

	for rows.Next() {
		var t Token
		var role string
		if err := rows.Scan(&t.Value, &role, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		t.Role = Role(role)
		tokens = append(tokens, &t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tokens: %w", err)
	}

	// Return empty slice instead of nil
	if tokens == nil {
		tokens = make([]*Token, 0)
	}

	return tokens, nil
}

// DeleteToken removes a token record entirely; there is no soft delete.
// Usage rows referencing the token are left in place.
// Returns ErrNotFound if the token doesn't exist.
func (s *SQLiteStorage) DeleteToken(ctx context.Context, value string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM tokens WHERE value = ?",
		value)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
