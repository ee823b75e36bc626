package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/caldermtz/tidechest/internal/platform/errors"
	"github.com/caldermtz/tidechest/internal/treasure/domain"
)

func TestClientStartGame(t *testing.T) {
	var got startGameRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/games/start" {
			t.Errorf("path: expected /v1/games/start, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type: expected application/json, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.StartGame(context.Background(), 42, domain.Identity("alice"), domain.Identity("bob"), 100, 150)
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	if got.RoomID != 42 {
		t.Errorf("room_id: expected 42, got %d", got.RoomID)
	}
	if got.PlayerA != "alice" || got.PlayerB != "bob" {
		t.Errorf("players: expected alice/bob, got %s/%s", got.PlayerA, got.PlayerB)
	}
	if got.StakeA != 100 || got.StakeB != 150 {
		t.Errorf("stakes: expected 100/150, got %d/%d", got.StakeA, got.StakeB)
	}
}

func TestClientEndGame(t *testing.T) {
	var got endGameRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/games/end" {
			t.Errorf("path: expected /v1/games/end, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if err := client.EndGame(context.Background(), 7, domain.Identity("alice")); err != nil {
		t.Fatalf("EndGame: %v", err)
	}

	if got.RoomID != 7 {
		t.Errorf("room_id: expected 7, got %d", got.RoomID)
	}
	if got.Winner != "alice" {
		t.Errorf("winner: expected alice, got %s", got.Winner)
	}
}

func TestClientNon2xxIsHubUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient stake", http.StatusConflict)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.StartGame(context.Background(), 1, domain.Identity("a"), domain.Identity("b"), 1, 1)
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !apperrors.IsCode(err, apperrors.CodeHubUnavailable) {
		t.Errorf("expected code %s, got %v", apperrors.CodeHubUnavailable, err)
	}
}

func TestClientConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL)
	err := client.EndGame(context.Background(), 1, domain.Identity("a"))
	if err == nil {
		t.Fatal("expected error for unreachable hub")
	}
	if !apperrors.IsCode(err, apperrors.CodeHubUnavailable) {
		t.Errorf("expected code %s, got %v", apperrors.CodeHubUnavailable, err)
	}
}

func TestClientContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL)
	err := client.StartGame(ctx, 1, domain.Identity("a"), domain.Identity("b"), 1, 1)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !apperrors.IsCode(err, apperrors.CodeHubUnavailable) {
		t.Errorf("expected code %s, got %v", apperrors.CodeHubUnavailable, err)
	}
}

func TestClientEmptyBaseURL(t *testing.T) {
	client := NewClient("")
	err := client.StartGame(context.Background(), 1, domain.Identity("a"), domain.Identity("b"), 1, 1)
	if !apperrors.IsCode(err, apperrors.CodeHubUnavailable) {
		t.Errorf("expected code %s, got %v", apperrors.CodeHubUnavailable, err)
	}
}
