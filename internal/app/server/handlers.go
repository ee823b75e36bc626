package server

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/caldermtz/tidechest/internal/platform/errors"
	"github.com/caldermtz/tidechest/internal/treasure/domain"
	"github.com/caldermtz/tidechest/internal/treasure/service"
)

type handler struct {
	svc *service.RoomService
}

// errorResponse is the wire shape of every failure.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps a service error onto an HTTP status and the flat error
// taxonomy. Unrecognized errors surface as UNKNOWN without leaking
// internals.
func writeError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	status := code.HTTPStatus()
	message := err.Error()
	if code == apperrors.CodeUnknown {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		message = "internal error"
	}
	c.JSON(status, errorResponse{Code: string(code), Message: message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Code:    string(apperrors.CodeInvalidArgument),
		Message: message,
	})
}

// digView is one recorded dig in a room snapshot.
type digView struct {
	Digger   string `json:"digger"`
	IslandID uint32 `json:"island_id"`
	TileID   uint32 `json:"tile_id"`
}

// roomView is the public room snapshot. Commitment digests never appear;
// only the per-role flags do.
type roomView struct {
	RoomID           uint32    `json:"room_id"`
	PlayerA          string    `json:"player_a"`
	PlayerB          string    `json:"player_b,omitempty"`
	StakeA           int64     `json:"stake_a"`
	StakeB           int64     `json:"stake_b"`
	Phase            string    `json:"phase"`
	Turn             string    `json:"turn,omitempty"`
	IslandTileCounts []uint32  `json:"island_tile_counts"`
	HasCommitmentA   bool      `json:"has_commitment_a"`
	HasCommitmentB   bool      `json:"has_commitment_b"`
	GameActive       bool      `json:"game_active"`
	Winner           string    `json:"winner,omitempty"`
	Digs             []digView `json:"digs"`
}

func toRoomView(room domain.Room) roomView {
	view := roomView{
		RoomID:           room.RoomID,
		PlayerA:          string(room.PlayerA),
		PlayerB:          string(room.PlayerB),
		StakeA:           room.StakeA,
		StakeB:           room.StakeB,
		Phase:            room.Phase.String(),
		IslandTileCounts: room.IslandTileCounts,
		HasCommitmentA:   room.HasCommitmentA,
		HasCommitmentB:   room.HasCommitmentB,
		GameActive:       room.GameActive,
		Winner:           string(room.Winner),
		Digs:             make([]digView, 0, len(room.Digs)),
	}
	if room.Phase == domain.PhasePlaying {
		view.Turn = room.TurnRole().String()
	}
	for _, d := range room.Digs {
		view.Digs = append(view.Digs, digView{
			Digger:   string(d.Digger),
			IslandID: d.IslandID,
			TileID:   d.TileID,
		})
	}
	return view
}

func roomIDParam(c *gin.Context) (uint32, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		badRequest(c, "room id must be an unsigned 32-bit integer")
		return 0, false
	}
	return uint32(id), true
}

func parsePlayer(c *gin.Context, raw string) (domain.Identity, bool) {
	player, err := domain.ParseIdentity(raw)
	if err != nil {
		badRequest(c, "invalid player identity: "+err.Error())
		return "", false
	}
	return player, true
}

type createRoomRequest struct {
	RoomID uint32 `json:"room_id"`
	Player string `json:"player"`
	Stake  int64  `json:"stake"`
	Grant  string `json:"grant"`
}

func (h *handler) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	player, ok := parsePlayer(c, req.Player)
	if !ok {
		return
	}
	room, err := h.svc.CreateRoom(c.Request.Context(), service.CreateRoomInput{
		RoomID: req.RoomID,
		Player: player,
		Stake:  req.Stake,
		Grant:  req.Grant,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRoomView(room))
}

type joinRoomRequest struct {
	Player string `json:"player"`
	Stake  int64  `json:"stake"`
	Grant  string `json:"grant"`
}

func (h *handler) joinRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	player, ok := parsePlayer(c, req.Player)
	if !ok {
		return
	}
	room, err := h.svc.JoinRoom(c.Request.Context(), service.JoinRoomInput{
		RoomID: roomID,
		Player: player,
		Stake:  req.Stake,
		Grant:  req.Grant,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomView(room))
}

type startRoomRequest struct {
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	StakeA  int64  `json:"stake_a"`
	StakeB  int64  `json:"stake_b"`
	GrantA  string `json:"grant_a"`
	GrantB  string `json:"grant_b"`
}

func (h *handler) startRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req startRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	playerA, ok := parsePlayer(c, req.PlayerA)
	if !ok {
		return
	}
	playerB, ok := parsePlayer(c, req.PlayerB)
	if !ok {
		return
	}
	room, err := h.svc.StartRoom(c.Request.Context(), service.StartRoomInput{
		RoomID:  roomID,
		PlayerA: playerA,
		PlayerB: playerB,
		StakeA:  req.StakeA,
		StakeB:  req.StakeB,
		GrantA:  req.GrantA,
		GrantB:  req.GrantB,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomView(room))
}

type buryRequest struct {
	Player     string `json:"player"`
	Commitment string `json:"commitment"`
	Grant      string `json:"grant"`
}

func (h *handler) buryTreasure(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req buryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	player, ok := parsePlayer(c, req.Player)
	if !ok {
		return
	}
	digest, err := domain.ParseDigest(req.Commitment)
	if err != nil {
		badRequest(c, "invalid commitment: "+err.Error())
		return
	}
	room, err := h.svc.BuryTreasure(c.Request.Context(), service.BuryInput{
		RoomID: roomID,
		Player: player,
		Digest: digest,
		Grant:  req.Grant,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomView(room))
}

type digRequest struct {
	Player   string `json:"player"`
	IslandID uint32 `json:"island_id"`
	TileID   uint32 `json:"tile_id"`
	Grant    string `json:"grant"`
}

func (h *handler) dig(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req digRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	player, ok := parsePlayer(c, req.Player)
	if !ok {
		return
	}
	room, err := h.svc.Dig(c.Request.Context(), service.DigInput{
		RoomID:   roomID,
		Player:   player,
		IslandID: req.IslandID,
		TileID:   req.TileID,
		Grant:    req.Grant,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomView(room))
}

type revealRequest struct {
	Player   string `json:"player"`
	IslandID uint32 `json:"island_id"`
	TileID   uint32 `json:"tile_id"`
	Salt     string `json:"salt"`
	Grant    string `json:"grant"`
}

func (h *handler) revealTreasure(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req revealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	player, ok := parsePlayer(c, req.Player)
	if !ok {
		return
	}
	salt, err := domain.ParseSalt(req.Salt)
	if err != nil {
		badRequest(c, "invalid salt: "+err.Error())
		return
	}
	room, err := h.svc.RevealTreasure(c.Request.Context(), service.RevealInput{
		RoomID:   roomID,
		Player:   player,
		IslandID: req.IslandID,
		TileID:   req.TileID,
		Salt:     salt,
		Grant:    req.Grant,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomView(room))
}

func (h *handler) getRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	room, err := h.svc.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomView(room))
}

func (h *handler) getAdmin(c *gin.Context) {
	admin, err := h.svc.GetAdmin(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": string(admin)})
}

type setAdminRequest struct {
	NewAdmin string `json:"new_admin"`
	Grant    string `json:"grant"`
}

func (h *handler) setAdmin(c *gin.Context) {
	var req setAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	err := h.svc.SetAdmin(c.Request.Context(), service.SetAdminInput{
		NewAdmin: domain.Identity(req.NewAdmin),
		Grant:    req.Grant,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": req.NewAdmin})
}

func (h *handler) getHub(c *gin.Context) {
	address, err := h.svc.GetHub(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hub": address})
}

type setHubRequest struct {
	Hub   string `json:"hub"`
	Grant string `json:"grant"`
}

func (h *handler) setHub(c *gin.Context) {
	var req setHubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	err := h.svc.SetHub(c.Request.Context(), service.SetHubInput{
		Address: req.Hub,
		Grant:   req.Grant,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hub": req.Hub})
}
