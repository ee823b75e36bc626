package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/caldermtz/tidechest/internal/treasure/storage"
)

// GetConfig loads a live service setting by key.
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("config key is required")
	}

	nowMilli := s.now().UTC().UnixMilli()
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT value FROM config WHERE key = ? AND expires_at > ?`,
		key, nowMilli,
	)

	var value string
	err := row.Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("scan config: %w", err)
	}
	return value, nil
}

// SetConfig upserts a service setting and renews its expiry.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("config key is required")
	}

	expiresAt := s.now().UTC().UnixMilli() + storage.RecordTTL.Milliseconds()
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO config (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at`,
		key, value, expiresAt,
	); err != nil {
		return fmt.Errorf("upsert config: %w", err)
	}
	return nil
}
