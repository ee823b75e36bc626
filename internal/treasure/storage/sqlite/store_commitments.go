package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/caldermtz/tidechest/internal/treasure/domain"
	"github.com/caldermtz/tidechest/internal/treasure/storage"
)

// GetCommitment loads a live commitment digest for the given role.
func (s *Store) GetCommitment(ctx context.Context, roomID uint32, role domain.Role) (domain.Digest, error) {
	if s == nil || s.sqlDB == nil {
		return domain.Digest{}, fmt.Errorf("storage is not configured")
	}

	nowMilli := s.now().UTC().UnixMilli()
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT digest FROM commitments
		 WHERE room_id = ? AND role = ? AND expires_at > ?`,
		roomID, role.String(), nowMilli,
	)

	var raw string
	err := row.Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Digest{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Digest{}, fmt.Errorf("scan commitment: %w", err)
	}

	digest, err := domain.ParseDigest(raw)
	if err != nil {
		return domain.Digest{}, fmt.Errorf("parse stored digest: %w", err)
	}
	return digest, nil
}
