package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/caldermtz/tidechest/internal/treasure/domain"
	"github.com/caldermtz/tidechest/internal/treasure/storage"
)

// CreateRoom inserts a fresh room record, reclaiming an expired record
// under the same id. A live record causes storage.ErrAlreadyExists.
func (s *Store) CreateRoom(ctx context.Context, room domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	nowMilli := s.now().UTC().UnixMilli()
	expiresAt := nowMilli + storage.RecordTTL.Milliseconds()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create room: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO rooms (
			room_id, player_a, player_b, stake_a, stake_b, phase, turn_is_a,
			island_tile_counts, has_commitment_a, has_commitment_b,
			game_active, winner, expires_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(room_id) DO UPDATE SET
			player_a = excluded.player_a,
			player_b = excluded.player_b,
			stake_a = excluded.stake_a,
			stake_b = excluded.stake_b,
			phase = excluded.phase,
			turn_is_a = excluded.turn_is_a,
			island_tile_counts = excluded.island_tile_counts,
			has_commitment_a = excluded.has_commitment_a,
			has_commitment_b = excluded.has_commitment_b,
			game_active = excluded.game_active,
			winner = excluded.winner,
			expires_at = excluded.expires_at
		 WHERE rooms.expires_at <= ?`,
		room.RoomID, string(room.PlayerA), string(room.PlayerB),
		room.StakeA, room.StakeB, uint32(room.Phase), boolToInt(room.TurnIsA),
		encodeTileCounts(room.IslandTileCounts),
		boolToInt(room.HasCommitmentA), boolToInt(room.HasCommitmentB),
		boolToInt(room.GameActive), string(room.Winner), expiresAt,
		nowMilli,
	)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert room rows: %w", err)
	}
	if rows == 0 {
		return storage.ErrAlreadyExists
	}

	// Clear leftovers from a reclaimed expired room.
	if _, err := tx.ExecContext(ctx, `DELETE FROM digs WHERE room_id = ?`, room.RoomID); err != nil {
		return fmt.Errorf("clear digs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM commitments WHERE room_id = ?`, room.RoomID); err != nil {
		return fmt.Errorf("clear commitments: %w", err)
	}
	if err := insertDigsTx(ctx, tx, room); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create room: %w", err)
	}
	return nil
}

// GetRoom loads a live room record with its dig history.
func (s *Store) GetRoom(ctx context.Context, roomID uint32) (domain.Room, error) {
	if s == nil || s.sqlDB == nil {
		return domain.Room{}, fmt.Errorf("storage is not configured")
	}

	nowMilli := s.now().UTC().UnixMilli()
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT room_id, player_a, player_b, stake_a, stake_b, phase, turn_is_a,
			island_tile_counts, has_commitment_a, has_commitment_b,
			game_active, winner
		 FROM rooms
		 WHERE room_id = ? AND expires_at > ?`,
		roomID, nowMilli,
	)

	var room domain.Room
	var playerA, playerB, winner, tileCounts string
	var phase uint32
	var turnIsA, hasA, hasB, active int64
	err := row.Scan(
		&room.RoomID, &playerA, &playerB, &room.StakeA, &room.StakeB,
		&phase, &turnIsA, &tileCounts, &hasA, &hasB, &active, &winner,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Room{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("scan room: %w", err)
	}

	room.PlayerA = domain.Identity(playerA)
	room.PlayerB = domain.Identity(playerB)
	room.Winner = domain.Identity(winner)
	room.Phase = domain.Phase(phase)
	room.TurnIsA = turnIsA != 0
	room.HasCommitmentA = hasA != 0
	room.HasCommitmentB = hasB != 0
	room.GameActive = active != 0
	room.IslandTileCounts, err = parseTileCounts(tileCounts)
	if err != nil {
		return domain.Room{}, fmt.Errorf("parse island tile counts: %w", err)
	}

	digs, err := s.loadDigs(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	room.Digs = digs
	return room, nil
}

// UpdateRoom overwrites a live room and renews the expiry of the room and
// its commitments as one unit.
func (s *Store) UpdateRoom(ctx context.Context, room domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update room: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.updateRoomTx(ctx, tx, room); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update room: %w", err)
	}
	return nil
}

// SaveBurial stores the role's commitment digest and the updated room in a
// single transaction. A live digest for the role causes
// storage.ErrAlreadyExists.
func (s *Store) SaveBurial(ctx context.Context, room domain.Room, role domain.Role, digest domain.Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	nowMilli := s.now().UTC().UnixMilli()
	expiresAt := nowMilli + storage.RecordTTL.Milliseconds()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save burial: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO commitments (room_id, role, digest, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(room_id, role) DO UPDATE SET
			digest = excluded.digest,
			expires_at = excluded.expires_at
		 WHERE commitments.expires_at <= ?`,
		room.RoomID, role.String(), digest.String(), expiresAt, nowMilli,
	)
	if err != nil {
		return fmt.Errorf("insert commitment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert commitment rows: %w", err)
	}
	if rows == 0 {
		return storage.ErrAlreadyExists
	}

	if err := s.updateRoomTx(ctx, tx, room); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save burial: %w", err)
	}
	return nil
}

// updateRoomTx rewrites the room row, its digs, and the commitment expiry
// within the caller's transaction.
func (s *Store) updateRoomTx(ctx context.Context, tx *sql.Tx, room domain.Room) error {
	nowMilli := s.now().UTC().UnixMilli()
	expiresAt := nowMilli + storage.RecordTTL.Milliseconds()

	res, err := tx.ExecContext(ctx,
		`UPDATE rooms SET
			player_a = ?, player_b = ?, stake_a = ?, stake_b = ?,
			phase = ?, turn_is_a = ?, island_tile_counts = ?,
			has_commitment_a = ?, has_commitment_b = ?,
			game_active = ?, winner = ?, expires_at = ?
		 WHERE room_id = ? AND expires_at > ?`,
		string(room.PlayerA), string(room.PlayerB), room.StakeA, room.StakeB,
		uint32(room.Phase), boolToInt(room.TurnIsA),
		encodeTileCounts(room.IslandTileCounts),
		boolToInt(room.HasCommitmentA), boolToInt(room.HasCommitmentB),
		boolToInt(room.GameActive), string(room.Winner), expiresAt,
		room.RoomID, nowMilli,
	)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update room rows: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM digs WHERE room_id = ?`, room.RoomID); err != nil {
		return fmt.Errorf("clear digs: %w", err)
	}
	if err := insertDigsTx(ctx, tx, room); err != nil {
		return err
	}

	// The room and its commitments expire as one unit.
	if _, err := tx.ExecContext(ctx,
		`UPDATE commitments SET expires_at = ? WHERE room_id = ?`,
		expiresAt, room.RoomID,
	); err != nil {
		return fmt.Errorf("renew commitments: %w", err)
	}
	return nil
}

func insertDigsTx(ctx context.Context, tx *sql.Tx, room domain.Room) error {
	for i, dig := range room.Digs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO digs (room_id, seq, digger, island_id, tile_id)
			 VALUES (?, ?, ?, ?, ?)`,
			room.RoomID, i, string(dig.Digger), dig.IslandID, dig.TileID,
		); err != nil {
			return fmt.Errorf("insert dig %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) loadDigs(ctx context.Context, roomID uint32) ([]domain.DigRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT digger, island_id, tile_id FROM digs WHERE room_id = ? ORDER BY seq`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("query digs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var digs []domain.DigRecord
	for rows.Next() {
		var digger string
		var dig domain.DigRecord
		if err := rows.Scan(&digger, &dig.IslandID, &dig.TileID); err != nil {
			return nil, fmt.Errorf("scan dig: %w", err)
		}
		dig.Digger = domain.Identity(digger)
		digs = append(digs, dig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digs: %w", err)
	}
	return digs, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
