package errors

import (
	stderrors "errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Room lifecycle errors
	CodeRoomExists   Code = "ROOM_EXISTS"
	CodeRoomNotFound Code = "ROOM_NOT_FOUND"
	CodeRoomFull     Code = "ROOM_FULL"
	CodeSelfPlay     Code = "SELF_PLAY"
	CodeWrongPhase   Code = "WRONG_PHASE"
	CodeGameEnded    Code = "GAME_ENDED"
	CodeNoOpponent   Code = "NO_OPPONENT"

	// Gameplay errors
	CodeNotYourTurn        Code = "NOT_YOUR_TURN"
	CodeAlreadyDug         Code = "ALREADY_DUG"
	CodeAlreadyBuried      Code = "ALREADY_BURIED"
	CodeInvalidIsland      Code = "INVALID_ISLAND"
	CodeInvalidTile        Code = "INVALID_TILE"
	CodeCommitmentMismatch Code = "COMMITMENT_MISMATCH"

	// Authorization errors
	CodeNotAPlayer   Code = "NOT_A_PLAYER"
	CodeUnauthorized Code = "UNAUTHORIZED"

	// Transport/infrastructure errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeHubUnavailable  Code = "HUB_UNAVAILABLE"
)

// HTTPStatus maps domain codes to HTTP response statuses.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - malformed input
	case CodeInvalidArgument,
		CodeInvalidIsland,
		CodeInvalidTile:
		return http.StatusBadRequest

	// Unauthorized - missing or invalid authorization proof
	case CodeUnauthorized:
		return http.StatusUnauthorized

	// Forbidden - authenticated but not a room participant
	case CodeNotAPlayer:
		return http.StatusForbidden

	// Not found - absent or expired record
	case CodeRoomNotFound:
		return http.StatusNotFound

	// Conflict - state does not allow the operation
	case CodeRoomExists,
		CodeRoomFull,
		CodeSelfPlay,
		CodeWrongPhase,
		CodeNotYourTurn,
		CodeAlreadyDug,
		CodeAlreadyBuried,
		CodeGameEnded,
		CodeNoOpponent:
		return http.StatusConflict

	// Unprocessable - the reveal pre-image does not match the commitment
	case CodeCommitmentMismatch:
		return http.StatusUnprocessableEntity

	// Bad gateway - the settlement authority rejected or was unreachable
	case CodeHubUnavailable:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}
