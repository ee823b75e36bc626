package domain

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	apperrors "github.com/caldermtz/tidechest/internal/platform/errors"
)

// Phase is the room's position in its fixed lifecycle. Phases only ever
// advance; there are no backward transitions.
type Phase uint32

const (
	// PhaseWaiting means the room was created and Player B may still join.
	PhaseWaiting Phase = iota
	// PhaseBurying means both players are submitting commitments.
	PhaseBurying
	// PhasePlaying means turn-based digging is underway.
	PhasePlaying
	// PhaseEnded means a winner was decided and the stakes were settled.
	PhaseEnded
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseBurying:
		return "burying"
	case PhasePlaying:
		return "playing"
	case PhaseEnded:
		return "ended"
	default:
		return fmt.Sprintf("phase(%d)", uint32(p))
	}
}

// Role tags one of the room's two player slots. Role-indexed state (the
// commitment flags and the stored commitments) is always addressed through
// a Role rather than duplicated per-player fields.
type Role int

const (
	// RolePlayerA is the room creator's slot.
	RolePlayerA Role = iota
	// RolePlayerB is the joining player's slot.
	RolePlayerB
)

// Opponent returns the other role.
func (r Role) Opponent() Role {
	if r == RolePlayerA {
		return RolePlayerB
	}
	return RolePlayerA
}

// String returns the role name used in storage keys and logs.
func (r Role) String() string {
	if r == RolePlayerA {
		return "player_a"
	}
	return "player_b"
}

// Identity is a player address: the raw-std base64 encoding of an Ed25519
// public key. The zero value means "unset".
type Identity string

// ParseIdentity validates that raw decodes to an Ed25519 public key.
func ParseIdentity(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("identity is required")
	}
	key, err := base64.RawStdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("decode identity: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return "", fmt.Errorf("identity must decode to %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	return Identity(raw), nil
}

// PublicKey returns the Ed25519 public key the identity encodes.
func (i Identity) PublicKey() (ed25519.PublicKey, error) {
	key, err := base64.RawStdEncoding.DecodeString(string(i))
	if err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("identity must decode to %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	return ed25519.PublicKey(key), nil
}

// DigRecord is one recorded excavation of a single tile by one player.
type DigRecord struct {
	Digger   Identity
	IslandID uint32
	TileID   uint32
}

// DefaultIslandTileCounts is the fixed island layout every room starts with.
var DefaultIslandTileCounts = []uint32{10, 20, 30}

// Room is the full state of one game session. Values are copied through
// transition methods; callers persist the returned Room as a unit.
type Room struct {
	RoomID  uint32
	PlayerA Identity
	PlayerB Identity // empty until a second player joins
	StakeA  int64
	StakeB  int64
	Phase   Phase
	// TurnIsA is meaningful only while Phase is PhasePlaying.
	TurnIsA          bool
	IslandTileCounts []uint32
	HasCommitmentA   bool
	HasCommitmentB   bool
	GameActive       bool
	Winner           Identity // empty until the game ends
	Digs             []DigRecord
}

// NewRoom creates a fresh room in the waiting phase with the caller as
// Player A and the default island layout.
func NewRoom(roomID uint32, playerA Identity, stakeA int64) (Room, error) {
	if playerA == "" {
		return Room{}, fmt.Errorf("player a identity is required")
	}
	counts := make([]uint32, len(DefaultIslandTileCounts))
	copy(counts, DefaultIslandTileCounts)
	return Room{
		RoomID:           roomID,
		PlayerA:          playerA,
		StakeA:           stakeA,
		Phase:            PhaseWaiting,
		TurnIsA:          true,
		IslandTileCounts: counts,
	}, nil
}

// RoleOf resolves which slot the player occupies, if any.
func (r Room) RoleOf(player Identity) (Role, bool) {
	switch {
	case player != "" && player == r.PlayerA:
		return RolePlayerA, true
	case player != "" && player == r.PlayerB:
		return RolePlayerB, true
	default:
		return 0, false
	}
}

// PlayerFor returns the identity occupying the given role.
func (r Room) PlayerFor(role Role) Identity {
	if role == RolePlayerA {
		return r.PlayerA
	}
	return r.PlayerB
}

// HasCommitment reports whether the role's commitment was recorded.
func (r Room) HasCommitment(role Role) bool {
	if role == RolePlayerA {
		return r.HasCommitmentA
	}
	return r.HasCommitmentB
}

// TurnRole returns the role whose turn it is. Only meaningful in the
// playing phase.
func (r Room) TurnRole() Role {
	if r.TurnIsA {
		return RolePlayerA
	}
	return RolePlayerB
}

// Join admits Player B into a waiting room. The room must not already have
// an opponent and a player cannot join their own room.
func (r Room) Join(playerB Identity, stakeB int64) (Room, error) {
	if r.Phase != PhaseWaiting {
		return Room{}, apperrors.New(apperrors.CodeWrongPhase, "room is no longer accepting players")
	}
	if r.PlayerB != "" {
		return Room{}, apperrors.New(apperrors.CodeRoomFull, "room already has two players")
	}
	if playerB == r.PlayerA {
		return Room{}, apperrors.New(apperrors.CodeSelfPlay, "cannot join your own room")
	}
	r.PlayerB = playerB
	r.StakeB = stakeB
	return r, nil
}

// Start moves a waiting room with two players into the burying phase. The
// identities must match the stored players and the stakes are rewritten
// from the jointly authorized arguments.
func (r Room) Start(playerA, playerB Identity, stakeA, stakeB int64) (Room, error) {
	if r.Phase != PhaseWaiting {
		return Room{}, apperrors.New(apperrors.CodeWrongPhase, "room has already started")
	}
	if r.PlayerB == "" {
		return Room{}, apperrors.New(apperrors.CodeNoOpponent, "no opponent has joined the room")
	}
	if playerA != r.PlayerA || playerB != r.PlayerB {
		return Room{}, apperrors.New(apperrors.CodeNotAPlayer, "identities do not match the room's players")
	}
	r.StakeA = stakeA
	r.StakeB = stakeB
	r.Phase = PhaseBurying
	r.GameActive = true
	return r, nil
}

// RecordBurial marks the player's commitment as submitted. Each role may
// bury exactly once. When both commitments are in, the room auto-advances
// to the playing phase with Player A on turn.
func (r Room) RecordBurial(player Identity) (Room, Role, error) {
	if r.Phase != PhaseBurying {
		return Room{}, 0, apperrors.New(apperrors.CodeWrongPhase, "room is not in the burying phase")
	}
	role, ok := r.RoleOf(player)
	if !ok {
		return Room{}, 0, apperrors.New(apperrors.CodeNotAPlayer, "caller is not a player in this room")
	}
	if r.HasCommitment(role) {
		return Room{}, 0, apperrors.New(apperrors.CodeAlreadyBuried, "commitment already submitted")
	}
	if role == RolePlayerA {
		r.HasCommitmentA = true
	} else {
		r.HasCommitmentB = true
	}
	if r.HasCommitmentA && r.HasCommitmentB {
		r.Phase = PhasePlaying
		r.TurnIsA = true // Player A digs first
	}
	return r, role, nil
}

// ApplyDig validates and records a dig, then passes the turn. A dig is
// rejected when the digger already dug that exact tile; the opponent
// digging the same tile is allowed — each player keeps an independent view
// of the shared layout.
func (r Room) ApplyDig(player Identity, islandID, tileID uint32) (Room, error) {
	if r.Phase != PhasePlaying {
		return Room{}, apperrors.New(apperrors.CodeWrongPhase, "room is not in the playing phase")
	}
	role, ok := r.RoleOf(player)
	if !ok {
		return Room{}, apperrors.New(apperrors.CodeNotAPlayer, "caller is not a player in this room")
	}
	if r.TurnRole() != role {
		return Room{}, apperrors.New(apperrors.CodeNotYourTurn, "it is not your turn")
	}
	if islandID >= uint32(len(r.IslandTileCounts)) {
		return Room{}, apperrors.New(apperrors.CodeInvalidIsland, "island index is out of range")
	}
	if tileID >= r.IslandTileCounts[islandID] {
		return Room{}, apperrors.New(apperrors.CodeInvalidTile, "tile index is out of range")
	}
	for _, d := range r.Digs {
		if d.Digger == player && d.IslandID == islandID && d.TileID == tileID {
			return Room{}, apperrors.New(apperrors.CodeAlreadyDug, "you already dug this tile")
		}
	}
	digs := make([]DigRecord, len(r.Digs), len(r.Digs)+1)
	copy(digs, r.Digs)
	r.Digs = append(digs, DigRecord{Digger: player, IslandID: islandID, TileID: tileID})
	r.TurnIsA = !r.TurnIsA
	return r, nil
}

// ValidateReveal checks that the player may attempt a reveal now and
// returns the caller's role. A reveal is only accepted on the revealer's
// own turn; it does not consume the turn on a mismatch.
func (r Room) ValidateReveal(player Identity) (Role, error) {
	if r.Phase == PhaseEnded {
		return 0, apperrors.New(apperrors.CodeGameEnded, "game already ended")
	}
	if r.Phase != PhasePlaying {
		return 0, apperrors.New(apperrors.CodeWrongPhase, "room is not in the playing phase")
	}
	if !r.GameActive {
		return 0, apperrors.New(apperrors.CodeGameEnded, "game is no longer active")
	}
	role, ok := r.RoleOf(player)
	if !ok {
		return 0, apperrors.New(apperrors.CodeNotAPlayer, "caller is not a player in this room")
	}
	if r.TurnRole() != role {
		return 0, apperrors.New(apperrors.CodeNotYourTurn, "it is not your turn")
	}
	return role, nil
}

// Finish ends the game with the given winner. The caller must have
// validated the reveal and settled with the hub first.
func (r Room) Finish(winner Identity) (Room, error) {
	if _, ok := r.RoleOf(winner); !ok {
		return Room{}, apperrors.New(apperrors.CodeNotAPlayer, "winner is not a player in this room")
	}
	r.Winner = winner
	r.GameActive = false
	r.Phase = PhaseEnded
	return r, nil
}
