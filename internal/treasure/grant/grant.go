// Package grant implements player authorization proofs.
//
// A player's identity is the base64 encoding of an Ed25519 public key, and
// a grant is a short-lived JWT signed with the matching private key whose
// claims bind the action, the room, and the action's parameters. Holding a
// valid grant proves the identity authorized exactly this call; operations
// requiring joint authorization collect one grant per player.
package grant

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/caldermtz/tidechest/internal/platform/errors"
	"github.com/caldermtz/tidechest/internal/treasure/domain"
)

// Action names a grant may authorize.
const (
	ActionCreateRoom     = "create_room"
	ActionJoinRoom       = "join_room"
	ActionStartRoom      = "start_room"
	ActionBuryTreasure   = "bury_treasure"
	ActionDig            = "dig"
	ActionRevealTreasure = "reveal_treasure"
	ActionSetAdmin       = "set_admin"
	ActionSetHub         = "set_hub"
)

// Parameter keys bound into grant claims.
const (
	ParamStake      = "stake"
	ParamStakeA     = "stake_a"
	ParamStakeB     = "stake_b"
	ParamCommitment = "commitment"
	ParamIsland     = "island"
	ParamTile       = "tile"
	ParamSalt       = "salt"
	ParamAdmin      = "admin"
	ParamHub        = "hub"
)

// DefaultTTL bounds how long a signed grant stays valid.
const DefaultTTL = 5 * time.Minute

// Expectation describes the exact call a grant must authorize.
type Expectation struct {
	Action string
	RoomID uint32
	Player domain.Identity
	Params map[string]string
}

// claims is the signed grant payload.
type claims struct {
	jwt.RegisteredClaims
	Action string            `json:"action"`
	RoomID uint32            `json:"room_id"`
	Params map[string]string `json:"params,omitempty"`
}

// Verifier validates player grants against expectations.
type Verifier struct {
	// Now overrides the time source; nil means time.Now.
	Now func() time.Time
}

// Verify checks that token is a live grant signed by the expected player's
// key and bound to the expected action, room, and parameters. Any failure
// surfaces as Unauthorized.
func (v Verifier) Verify(token string, expected Expectation) error {
	if token == "" {
		return apperrors.New(apperrors.CodeUnauthorized, "authorization grant is required")
	}
	key, err := expected.Player.PublicKey()
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUnauthorized, "resolve player key", err)
	}

	now := v.Now
	if now == nil {
		now = time.Now
	}

	var parsed claims
	_, err = jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithTimeFunc(now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUnauthorized, grantErrorMessage(err), err)
	}

	if parsed.Action != expected.Action {
		return apperrors.WithMetadata(apperrors.CodeUnauthorized, "grant authorizes a different action",
			map[string]string{"field": "action"})
	}
	if parsed.RoomID != expected.RoomID {
		return apperrors.WithMetadata(apperrors.CodeUnauthorized, "grant authorizes a different room",
			map[string]string{"field": "room_id"})
	}
	for k, want := range expected.Params {
		if got, ok := parsed.Params[k]; !ok || got != want {
			return apperrors.WithMetadata(apperrors.CodeUnauthorized, "grant parameters do not match the call",
				map[string]string{"field": k})
		}
	}
	return nil
}

func grantErrorMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "authorization grant has expired"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "authorization grant is not valid yet"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "authorization grant signature is invalid"
	default:
		return "authorization grant is invalid"
	}
}

// Sign issues a grant for the expectation using the player's private key.
// Clients sign locally; the service only ever verifies.
func Sign(key ed25519.PrivateKey, expected Expectation, issuedAt time.Time, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	issuedAt = issuedAt.UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(expected.Player),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		Action: expected.Action,
		RoomID: expected.RoomID,
		Params: expected.Params,
	})
	return token.SignedString(key)
}
