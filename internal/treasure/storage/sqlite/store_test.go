package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/caldermtz/tidechest/internal/treasure/domain"
	"github.com/caldermtz/tidechest/internal/treasure/storage"
	_ "modernc.org/sqlite"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "treasure.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return store
}

func testRoom(roomID uint32) domain.Room {
	room, _ := domain.NewRoom(roomID, "player-a-key", 100)
	return room
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenRunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treasure.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() {
		_ = sqlDB.Close()
	}()

	for _, table := range []string{"rooms", "digs", "commitments", "config"} {
		var name string
		row := sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table)
		if err := row.Scan(&name); err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}
}

func TestCreateAndGetRoomRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	room := testRoom(42)
	room.PlayerB = "player-b-key"
	room.StakeB = 200
	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}

	got, err := store.GetRoom(ctx, 42)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if got.RoomID != 42 {
		t.Fatalf("room id = %d, want 42", got.RoomID)
	}
	if got.PlayerA != room.PlayerA || got.PlayerB != room.PlayerB {
		t.Fatalf("players = %q/%q, want %q/%q", got.PlayerA, got.PlayerB, room.PlayerA, room.PlayerB)
	}
	if got.StakeA != 100 || got.StakeB != 200 {
		t.Fatalf("stakes = %d/%d, want 100/200", got.StakeA, got.StakeB)
	}
	if got.Phase != domain.PhaseWaiting {
		t.Fatalf("phase = %s, want %s", got.Phase, domain.PhaseWaiting)
	}
	if len(got.IslandTileCounts) != 3 || got.IslandTileCounts[2] != 30 {
		t.Fatalf("tile counts = %v, want [10 20 30]", got.IslandTileCounts)
	}
	if len(got.Digs) != 0 {
		t.Fatalf("digs = %d, want 0", len(got.Digs))
	}
}

func TestCreateRoomRejectsLiveDuplicate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateRoom(ctx, testRoom(7)); err != nil {
		t.Fatalf("create room: %v", err)
	}
	err := store.CreateRoom(ctx, testRoom(7))
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate create = %v, want %v", err, storage.ErrAlreadyExists)
	}
}

func TestExpiredRoomReadsAsNotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()
	store.clock = func() time.Time { return base }

	if err := store.CreateRoom(ctx, testRoom(7)); err != nil {
		t.Fatalf("create room: %v", err)
	}

	store.clock = func() time.Time { return base.Add(storage.RecordTTL + time.Minute) }
	if _, err := store.GetRoom(ctx, 7); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expired get = %v, want %v", err, storage.ErrNotFound)
	}
	if err := store.UpdateRoom(ctx, testRoom(7)); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expired update = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestCreateRoomReclaimsExpiredID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()
	store.clock = func() time.Time { return base }

	old := testRoom(7)
	old.PlayerB = "old-player-b"
	if err := store.CreateRoom(ctx, old); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := store.SaveBurial(ctx, old, domain.RolePlayerA, domain.Digest{1}); err != nil {
		t.Fatalf("save burial: %v", err)
	}

	store.clock = func() time.Time { return base.Add(storage.RecordTTL + time.Minute) }
	fresh := testRoom(7)
	if err := store.CreateRoom(ctx, fresh); err != nil {
		t.Fatalf("reclaim expired id: %v", err)
	}

	got, err := store.GetRoom(ctx, 7)
	if err != nil {
		t.Fatalf("get reclaimed room: %v", err)
	}
	if got.PlayerB != "" {
		t.Fatalf("player b = %q, want empty after reclaim", got.PlayerB)
	}
	// The predecessor's commitment must not leak into the new room.
	if _, err := store.GetCommitment(ctx, 7, domain.RolePlayerA); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("stale commitment = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestUpdateRoomPersistsDigsInOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	room := testRoom(9)
	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}

	room.Digs = []domain.DigRecord{
		{Digger: "player-a-key", IslandID: 1, TileID: 5},
		{Digger: "player-b-key", IslandID: 2, TileID: 9},
	}
	room.TurnIsA = true
	if err := store.UpdateRoom(ctx, room); err != nil {
		t.Fatalf("update room: %v", err)
	}

	got, err := store.GetRoom(ctx, 9)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if len(got.Digs) != 2 {
		t.Fatalf("digs = %d, want 2", len(got.Digs))
	}
	if got.Digs[0].IslandID != 1 || got.Digs[0].TileID != 5 {
		t.Fatalf("first dig = %+v, want island 1 tile 5", got.Digs[0])
	}
	if got.Digs[1].Digger != "player-b-key" {
		t.Fatalf("second digger = %q, want player-b-key", got.Digs[1].Digger)
	}
}

func TestSaveBurialIsWriteOnce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	room := testRoom(11)
	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}

	first := domain.Digest{0xAA}
	if err := store.SaveBurial(ctx, room, domain.RolePlayerA, first); err != nil {
		t.Fatalf("save burial: %v", err)
	}

	err := store.SaveBurial(ctx, room, domain.RolePlayerA, domain.Digest{0xBB})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("second burial = %v, want %v", err, storage.ErrAlreadyExists)
	}

	got, err := store.GetCommitment(ctx, 11, domain.RolePlayerA)
	if err != nil {
		t.Fatalf("get commitment: %v", err)
	}
	if got != first {
		t.Fatalf("digest = %s, want the first digest unchanged", got)
	}

	// The other role has no commitment yet.
	if _, err := store.GetCommitment(ctx, 11, domain.RolePlayerB); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing commitment = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestRoomWritesRenewCommitmentExpiry(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()
	store.clock = func() time.Time { return base }

	room := testRoom(13)
	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := store.SaveBurial(ctx, room, domain.RolePlayerB, domain.Digest{0x01}); err != nil {
		t.Fatalf("save burial: %v", err)
	}

	// Touch the room shortly before the original expiry; the commitment
	// must outlive the original window because the unit was renewed.
	store.clock = func() time.Time { return base.Add(storage.RecordTTL - time.Hour) }
	if err := store.UpdateRoom(ctx, room); err != nil {
		t.Fatalf("update room: %v", err)
	}

	store.clock = func() time.Time { return base.Add(storage.RecordTTL + time.Hour) }
	if _, err := store.GetCommitment(ctx, 13, domain.RolePlayerB); err != nil {
		t.Fatalf("renewed commitment: %v", err)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.GetConfig(ctx, storage.ConfigKeyAdmin); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing config = %v, want %v", err, storage.ErrNotFound)
	}

	if err := store.SetConfig(ctx, storage.ConfigKeyAdmin, "admin-key"); err != nil {
		t.Fatalf("set config: %v", err)
	}
	got, err := store.GetConfig(ctx, storage.ConfigKeyAdmin)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if got != "admin-key" {
		t.Fatalf("config = %q, want %q", got, "admin-key")
	}

	if err := store.SetConfig(ctx, storage.ConfigKeyAdmin, "next-admin"); err != nil {
		t.Fatalf("overwrite config: %v", err)
	}
	got, err = store.GetConfig(ctx, storage.ConfigKeyAdmin)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if got != "next-admin" {
		t.Fatalf("config = %q, want %q", got, "next-admin")
	}
}
