// Package storage defines the persistence interfaces for room records.
//
// All room-scoped records carry a renewable expiry: every write extends the
// record's lifetime by RecordTTL, and a record past its expiry is
// indistinguishable from one that never existed. Expiry is resource
// reclamation, not a gameplay signal.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/caldermtz/tidechest/internal/treasure/domain"
)

// RecordTTL is the renewable expiry window for all persisted records.
const RecordTTL = 30 * 24 * time.Hour

// ErrNotFound indicates a requested record is missing or expired.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a record with the same key is still live.
var ErrAlreadyExists = errors.New("record already exists")

// Config keys for the singleton service settings.
const (
	// ConfigKeyAdmin stores the administrator identity.
	ConfigKeyAdmin = "admin_identity"
	// ConfigKeyHubAddress stores the settlement hub's base URL.
	ConfigKeyHubAddress = "hub_address"
)

// RoomStore persists full room records. A room and its commitments form a
// single transactional unit: implementations must apply each call
// atomically and refresh the expiry of the whole unit on every write.
type RoomStore interface {
	// CreateRoom inserts a fresh room, reclaiming any expired record
	// under the same id. Fails with ErrAlreadyExists if a live room
	// holds the id.
	CreateRoom(ctx context.Context, room domain.Room) error

	// GetRoom loads a live room. Fails with ErrNotFound when the id is
	// absent or the record expired.
	GetRoom(ctx context.Context, roomID uint32) (domain.Room, error)

	// UpdateRoom overwrites a live room and renews its expiry.
	UpdateRoom(ctx context.Context, room domain.Room) error

	// SaveBurial writes the role's commitment digest and the updated
	// room in one transaction. Fails with ErrAlreadyExists if the role
	// already has a commitment on record.
	SaveBurial(ctx context.Context, room domain.Room, role domain.Role, digest domain.Digest) error
}

// CommitmentStore reads stored commitment digests. Digests are write-once;
// only SaveBurial creates them.
type CommitmentStore interface {
	GetCommitment(ctx context.Context, roomID uint32, role domain.Role) (domain.Digest, error)
}

// ConfigStore persists the singleton service settings (admin identity and
// hub address) in the same renewable-expiry storage class as rooms.
type ConfigStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// Store combines every persistence concern the service needs.
type Store interface {
	RoomStore
	CommitmentStore
	ConfigStore
}
