package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/caldermtz/tidechest/internal/platform/errors"
	"github.com/caldermtz/tidechest/internal/platform/timeouts"
	"github.com/caldermtz/tidechest/internal/treasure/domain"
)

// Client implements Authority over the hub's HTTP JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a hub client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeouts.HubRequest},
	}
}

type startGameRequest struct {
	RoomID  uint32 `json:"room_id"`
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	StakeA  int64  `json:"stake_a"`
	StakeB  int64  `json:"stake_b"`
}

type endGameRequest struct {
	RoomID uint32 `json:"room_id"`
	Winner string `json:"winner"`
}

// StartGame registers the session and locks both stakes.
func (c *Client) StartGame(ctx context.Context, roomID uint32, playerA, playerB domain.Identity, stakeA, stakeB int64) error {
	return c.post(ctx, "/v1/games/start", startGameRequest{
		RoomID:  roomID,
		PlayerA: string(playerA),
		PlayerB: string(playerB),
		StakeA:  stakeA,
		StakeB:  stakeB,
	})
}

// EndGame settles the stakes to the winner.
func (c *Client) EndGame(ctx context.Context, roomID uint32, winner domain.Identity) error {
	return c.post(ctx, "/v1/games/end", endGameRequest{
		RoomID: roomID,
		Winner: string(winner),
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	if c == nil || c.baseURL == "" {
		return apperrors.New(apperrors.CodeHubUnavailable, "hub address is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode hub request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build hub request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeHubUnavailable, "hub request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a little of the body for the log line; the caller only
		// sees the code.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return apperrors.WithMetadata(apperrors.CodeHubUnavailable,
			fmt.Sprintf("hub rejected %s with status %d", path, resp.StatusCode),
			map[string]string{"status": fmt.Sprintf("%d", resp.StatusCode), "body": string(snippet)},
		)
	}
	return nil
}

var _ Authority = (*Client)(nil)
