// Package service implements the room lifecycle controller. It validates
// authorization grants, drives the pure state transitions in domain, and
// orchestrates the store and the settlement hub. Hub calls happen strictly
// before the local write: a hub failure aborts the operation with no
// mutation.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/caldermtz/tidechest/internal/platform/errors"
	"github.com/caldermtz/tidechest/internal/treasure/domain"
	"github.com/caldermtz/tidechest/internal/treasure/grant"
	"github.com/caldermtz/tidechest/internal/treasure/hub"
	"github.com/caldermtz/tidechest/internal/treasure/storage"
)

var tracer = otel.Tracer("tidechest/treasure/service")

// RoomService exposes the room lifecycle and administrative operations.
// Mutations on one room are serialized through locks so each operation's
// read-validate-write sequence commits as a unit.
type RoomService struct {
	store    storage.Store
	verifier grant.Verifier
	hubFor   func(address string) hub.Authority
	clock    func() time.Time
	locks    *roomLocks
}

// NewRoomService creates a RoomService with default dependencies.
func NewRoomService(store storage.Store) *RoomService {
	s := &RoomService{
		store: store,
		hubFor: func(address string) hub.Authority {
			return hub.NewClient(address)
		},
		clock: time.Now,
		locks: newRoomLocks(),
	}
	s.verifier = grant.Verifier{Now: func() time.Time { return s.clock() }}
	return s
}

// CreateRoomInput carries the create_room call and its authorization.
type CreateRoomInput struct {
	RoomID uint32
	Player domain.Identity
	Stake  int64
	Grant  string
}

// CreateRoom opens a fresh room in the waiting phase with the caller as
// Player A.
func (s *RoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (domain.Room, error) {
	ctx, span := startSpan(ctx, "room_service.create_room", in.RoomID)
	defer span.End()

	if s == nil || s.store == nil {
		return domain.Room{}, apperrors.New(apperrors.CodeUnknown, "room store is not configured")
	}
	if err := s.verifier.Verify(in.Grant, grant.Expectation{
		Action: grant.ActionCreateRoom,
		RoomID: in.RoomID,
		Player: in.Player,
		Params: map[string]string{grant.ParamStake: formatInt(in.Stake)},
	}); err != nil {
		return domain.Room{}, err
	}

	unlock := s.locks.lock(in.RoomID)
	defer unlock()

	room, err := domain.NewRoom(in.RoomID, in.Player, in.Stake)
	if err != nil {
		return domain.Room{}, apperrors.Wrap(apperrors.CodeInvalidArgument, "create room", err)
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return domain.Room{}, apperrors.New(apperrors.CodeRoomExists, "a room with this id already exists")
		}
		return domain.Room{}, fmt.Errorf("persist room: %w", err)
	}
	return room, nil
}

// JoinRoomInput carries the join_room call and its authorization.
type JoinRoomInput struct {
	RoomID uint32
	Player domain.Identity
	Stake  int64
	Grant  string
}

// JoinRoom admits the caller as Player B of a waiting room.
func (s *RoomService) JoinRoom(ctx context.Context, in JoinRoomInput) (domain.Room, error) {
	ctx, span := startSpan(ctx, "room_service.join_room", in.RoomID)
	defer span.End()

	if s == nil || s.store == nil {
		return domain.Room{}, apperrors.New(apperrors.CodeUnknown, "room store is not configured")
	}
	if err := s.verifier.Verify(in.Grant, grant.Expectation{
		Action: grant.ActionJoinRoom,
		RoomID: in.RoomID,
		Player: in.Player,
		Params: map[string]string{grant.ParamStake: formatInt(in.Stake)},
	}); err != nil {
		return domain.Room{}, err
	}

	unlock := s.locks.lock(in.RoomID)
	defer unlock()

	room, err := s.loadRoom(ctx, in.RoomID)
	if err != nil {
		return domain.Room{}, err
	}
	room, err = room.Join(in.Player, in.Stake)
	if err != nil {
		return domain.Room{}, err
	}
	if err := s.store.UpdateRoom(ctx, room); err != nil {
		return domain.Room{}, fmt.Errorf("persist room: %w", err)
	}
	return room, nil
}

// StartRoomInput carries the jointly authorized start_room call. Both
// players sign independent grants over the same room and stakes.
type StartRoomInput struct {
	RoomID  uint32
	PlayerA domain.Identity
	PlayerB domain.Identity
	StakeA  int64
	StakeB  int64
	GrantA  string
	GrantB  string
}

// StartRoom activates a waiting room. The hub locks both stakes before any
// local state changes; a hub failure leaves the room in Waiting.
func (s *RoomService) StartRoom(ctx context.Context, in StartRoomInput) (domain.Room, error) {
	ctx, span := startSpan(ctx, "room_service.start_room", in.RoomID)
	defer span.End()

	if s == nil || s.store == nil {
		return domain.Room{}, apperrors.New(apperrors.CodeUnknown, "room store is not configured")
	}
	stakes := map[string]string{
		grant.ParamStakeA: formatInt(in.StakeA),
		grant.ParamStakeB: formatInt(in.StakeB),
	}
	if err := s.verifier.Verify(in.GrantA, grant.Expectation{
		Action: grant.ActionStartRoom,
		RoomID: in.RoomID,
		Player: in.PlayerA,
		Params: stakes,
	}); err != nil {
		return domain.Room{}, err
	}
	if err := s.verifier.Verify(in.GrantB, grant.Expectation{
		Action: grant.ActionStartRoom,
		RoomID: in.RoomID,
		Player: in.PlayerB,
		Params: stakes,
	}); err != nil {
		return domain.Room{}, err
	}

	unlock := s.locks.lock(in.RoomID)
	defer unlock()

	room, err := s.loadRoom(ctx, in.RoomID)
	if err != nil {
		return domain.Room{}, err
	}
	room, err = room.Start(in.PlayerA, in.PlayerB, in.StakeA, in.StakeB)
	if err != nil {
		return domain.Room{}, err
	}

	authority, err := s.hubAuthority(ctx)
	if err != nil {
		return domain.Room{}, err
	}
	if err := authority.StartGame(ctx, room.RoomID, room.PlayerA, room.PlayerB, room.StakeA, room.StakeB); err != nil {
		return domain.Room{}, err
	}
	if err := s.store.UpdateRoom(ctx, room); err != nil {
		return domain.Room{}, fmt.Errorf("persist room: %w", err)
	}
	return room, nil
}

// BuryInput carries the bury_treasure call and its authorization.
type BuryInput struct {
	RoomID uint32
	Player domain.Identity
	Digest domain.Digest
	Grant  string
}

// BuryTreasure records the caller's commitment digest. Each role buries
// exactly once; when both are in, the room advances to the playing phase.
func (s *RoomService) BuryTreasure(ctx context.Context, in BuryInput) (domain.Room, error) {
	ctx, span := startSpan(ctx, "room_service.bury_treasure", in.RoomID)
	defer span.End()

	if s == nil || s.store == nil {
		return domain.Room{}, apperrors.New(apperrors.CodeUnknown, "room store is not configured")
	}
	if err := s.verifier.Verify(in.Grant, grant.Expectation{
		Action: grant.ActionBuryTreasure,
		RoomID: in.RoomID,
		Player: in.Player,
		Params: map[string]string{grant.ParamCommitment: in.Digest.String()},
	}); err != nil {
		return domain.Room{}, err
	}

	unlock := s.locks.lock(in.RoomID)
	defer unlock()

	room, err := s.loadRoom(ctx, in.RoomID)
	if err != nil {
		return domain.Room{}, err
	}
	room, role, err := room.RecordBurial(in.Player)
	if err != nil {
		return domain.Room{}, err
	}
	if err := s.store.SaveBurial(ctx, room, role, in.Digest); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return domain.Room{}, apperrors.New(apperrors.CodeAlreadyBuried, "commitment already submitted")
		}
		return domain.Room{}, fmt.Errorf("persist burial: %w", err)
	}
	return room, nil
}

// DigInput carries the dig call and its authorization.
type DigInput struct {
	RoomID   uint32
	Player   domain.Identity
	IslandID uint32
	TileID   uint32
	Grant    string
}

// Dig records an excavation of one tile on the caller's turn and passes the turn.
func (s *RoomService) Dig(ctx context.Context, in DigInput) (domain.Room, error) {
	ctx, span := startSpan(ctx, "room_service.dig", in.RoomID)
	defer span.End()

	if s == nil || s.store == nil {
		return domain.Room{}, apperrors.New(apperrors.CodeUnknown, "room store is not configured")
	}
	if err := s.verifier.Verify(in.Grant, grant.Expectation{
		Action: grant.ActionDig,
		RoomID: in.RoomID,
		Player: in.Player,
		Params: map[string]string{
			grant.ParamIsland: formatUint(in.IslandID),
			grant.ParamTile:   formatUint(in.TileID),
		},
	}); err != nil {
		return domain.Room{}, err
	}

	unlock := s.locks.lock(in.RoomID)
	defer unlock()

	room, err := s.loadRoom(ctx, in.RoomID)
	if err != nil {
		return domain.Room{}, err
	}
	room, err = room.ApplyDig(in.Player, in.IslandID, in.TileID)
	if err != nil {
		return domain.Room{}, err
	}
	if err := s.store.UpdateRoom(ctx, room); err != nil {
		return domain.Room{}, fmt.Errorf("persist room: %w", err)
	}
	return room, nil
}

// RevealInput carries the reveal_treasure call and its authorization.
type RevealInput struct {
	RoomID   uint32
	Player   domain.Identity
	IslandID uint32
	TileID   uint32
	Salt     domain.Salt
	Grant    string
}

// RevealTreasure adjudicates the game. The disclosed location and salt
// must recompute to the opponent's stored commitment, never the caller's
// own. The hub settles the stakes before the winner is written locally.
func (s *RoomService) RevealTreasure(ctx context.Context, in RevealInput) (domain.Room, error) {
	ctx, span := startSpan(ctx, "room_service.reveal_treasure", in.RoomID)
	defer span.End()

	if s == nil || s.store == nil {
		return domain.Room{}, apperrors.New(apperrors.CodeUnknown, "room store is not configured")
	}
	if err := s.verifier.Verify(in.Grant, grant.Expectation{
		Action: grant.ActionRevealTreasure,
		RoomID: in.RoomID,
		Player: in.Player,
		Params: map[string]string{
			grant.ParamIsland: formatUint(in.IslandID),
			grant.ParamTile:   formatUint(in.TileID),
			grant.ParamSalt:   in.Salt.String(),
		},
	}); err != nil {
		return domain.Room{}, err
	}

	unlock := s.locks.lock(in.RoomID)
	defer unlock()

	room, err := s.loadRoom(ctx, in.RoomID)
	if err != nil {
		return domain.Room{}, err
	}
	role, err := room.ValidateReveal(in.Player)
	if err != nil {
		return domain.Room{}, err
	}

	stored, err := s.store.GetCommitment(ctx, in.RoomID, role.Opponent())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Room{}, apperrors.New(apperrors.CodeNoOpponent, "opponent has no commitment on record")
		}
		return domain.Room{}, fmt.Errorf("load opponent commitment: %w", err)
	}
	if !domain.VerifyCommitment(stored, in.RoomID, in.IslandID, in.TileID, in.Salt) {
		return domain.Room{}, apperrors.New(apperrors.CodeCommitmentMismatch, "revealed location does not match the opponent's commitment")
	}

	authority, err := s.hubAuthority(ctx)
	if err != nil {
		return domain.Room{}, err
	}
	if err := authority.EndGame(ctx, room.RoomID, in.Player); err != nil {
		return domain.Room{}, err
	}

	room, err = room.Finish(in.Player)
	if err != nil {
		return domain.Room{}, err
	}
	if err := s.store.UpdateRoom(ctx, room); err != nil {
		return domain.Room{}, fmt.Errorf("persist room: %w", err)
	}
	return room, nil
}

// GetRoom returns the room's full snapshot.
func (s *RoomService) GetRoom(ctx context.Context, roomID uint32) (domain.Room, error) {
	ctx, span := startSpan(ctx, "room_service.get_room", roomID)
	defer span.End()

	if s == nil || s.store == nil {
		return domain.Room{}, apperrors.New(apperrors.CodeUnknown, "room store is not configured")
	}
	return s.loadRoom(ctx, roomID)
}

func (s *RoomService) loadRoom(ctx context.Context, roomID uint32) (domain.Room, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Room{}, apperrors.New(apperrors.CodeRoomNotFound, "room not found")
		}
		return domain.Room{}, fmt.Errorf("load room: %w", err)
	}
	return room, nil
}

// hubAuthority resolves the settlement authority from the stored hub
// address at call time.
func (s *RoomService) hubAuthority(ctx context.Context) (hub.Authority, error) {
	address, err := s.store.GetConfig(ctx, storage.ConfigKeyHubAddress)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeHubUnavailable, "hub address is not configured")
		}
		return nil, fmt.Errorf("load hub address: %w", err)
	}
	return s.hubFor(address), nil
}

func startSpan(ctx context.Context, name string, roomID uint32) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.Int64("room.id", int64(roomID))))
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatUint(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
