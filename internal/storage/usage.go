package storage

import (
	"context"
	"fmt"
	"time"
)

// recentActivityLimit caps the recent-calls slice in the usage summary.
const recentActivityLimit = 10

// RecordUsage appends one usage entry. The log is append-only; nothing in
// normal operation mutates or deletes rows.
func (s *SQLiteStorage) RecordUsage(ctx context.Context, token, endpoint string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO usages (token, endpoint, timestamp) VALUES (?, ?, ?)",
		token, endpoint, ts.UTC())
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// ListUsage returns all usage records, oldest first.
// Returns empty slice if no records exist.
func (s *SQLiteStorage) ListUsage(ctx context.Context) ([]*UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, token, endpoint, timestamp FROM usages ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var records []*UsageRecord

	for rows.Next() {
		var u UsageRecord
		if err := rows.Scan(&u.ID, &u.Token, &u.Endpoint, &u.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		records = append(records, &u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage records: %w", err)
	}

	if records == nil {
		records = make([]*UsageRecord, 0)
	}

	return records, nil
}

// UsageSummary aggregates the entire usage log: total calls, distinct
// callers, per-endpoint counts, and the most recent calls. Computed fresh on
// every invocation; there is no cached state to invalidate.
func (s *SQLiteStorage) UsageSummary(ctx context.Context) (*UsageSummary, error) {
	summary := &UsageSummary{
		CallsByEndpoint: make(map[string]int64),
	}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT token) FROM usages").
		Scan(&summary.TotalCalls, &summary.UniqueTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT endpoint, COUNT(*) FROM usages GROUP BY endpoint ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage by endpoint: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var endpoint string
		var count int64
		if err := rows.Scan(&endpoint, &count); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint count: %w", err)
		}
		summary.CallsByEndpoint[endpoint] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating endpoint counts: %w", err)
	}

	recent, err := s.recentUsage(ctx, recentActivityLimit)
	if err != nil {
		return nil, err
	}
	summary.RecentActivity = recent

	return summary, nil
}

// recentUsage returns up to limit records, newest first.
func (s *SQLiteStorage) recentUsage(ctx context.Context, limit int) ([]*UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, token, endpoint, timestamp FROM usages ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent usage: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var records []*UsageRecord
	for rows.Next() {
		var u UsageRecord
		if err := rows.Scan(&u.ID, &u.Token, &u.Endpoint, &u.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		records = append(records, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent usage: %w", err)
	}

	if records == nil {
		records = make([]*UsageRecord, 0)
	}

	return records, nil
}
