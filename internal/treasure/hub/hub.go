// Package hub talks to the external settlement authority that locks and
// releases stakes. The hub is the source of truth for whether a game
// concluded and who won: the service always calls it before committing any
// local outcome, so local state can never claim a settlement the hub has
// not recorded.
package hub

import (
	"context"

	"github.com/caldermtz/tidechest/internal/treasure/domain"
)

// Authority is the narrow capability the game needs from the hub. Both
// calls are idempotent per room on the hub side.
type Authority interface {
	// StartGame locks both stakes for the session.
	StartGame(ctx context.Context, roomID uint32, playerA, playerB domain.Identity, stakeA, stakeB int64) error
	// EndGame releases the stakes to the winner. Fails if StartGame was
	// never called for the room.
	EndGame(ctx context.Context, roomID uint32, winner domain.Identity) error
}
