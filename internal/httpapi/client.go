package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mkarlsen/mafia-night/internal/protocol"
)

var ErrGameNotFound = errors.New("game not found")

// Client talks to the authority's session endpoints. The authority
// expects the caller to mint its own host/player ids; Create and Join
// generate them and hand them back with the response.
type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type CreateResult struct {
	GameID string
	HostID string
}

// Create makes a new session with the given host name and optional
// theme.
func (c *Client) Create(ctx context.Context, hostName, theme string) (CreateResult, error) {
	hostID := uuid.NewString()
	req := struct {
		HostName string `json:"host_name"`
		HostID   string `json:"host_id"`
		Theme    string `json:"theme,omitempty"`
	}{HostName: hostName, HostID: hostID, Theme: theme}

	var resp struct {
		GameID string `json:"game_id"`
	}
	if err := c.post(ctx, "/api/create", req, &resp); err != nil {
		return CreateResult{}, err
	}
	if resp.GameID == "" {
		return CreateResult{}, errors.New("create: authority returned no game id")
	}
	return CreateResult{GameID: resp.GameID, HostID: hostID}, nil
}

// Join adds a named player to an existing session and returns the
// minted player id.
func (c *Client) Join(ctx context.Context, gameID, name string) (string, error) {
	playerID := uuid.NewString()
	req := struct {
		GameID   string `json:"game_id"`
		PlayerID string `json:"player_id"`
		Name     string `json:"name"`
	}{GameID: gameID, PlayerID: playerID, Name: name}

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.post(ctx, "/api/join", req, &resp); err != nil {
		return "", err
	}
	return playerID, nil
}

// Lobby fetches the current lobby roster.
func (c *Client) Lobby(ctx context.Context, gameID string) (protocol.PlayerSet, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/lobby/"+gameID, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if err := statusErr(res.StatusCode); err != nil {
		return nil, err
	}

	var resp struct {
		Players protocol.PlayerSet `json:"players"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, err
	}
	return resp.Players, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if err := statusErr(res.StatusCode); err != nil {
		return err
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func statusErr(code int) error {
	switch {
	case code == http.StatusNotFound:
		return ErrGameNotFound
	case code < 200 || code > 299:
		return fmt.Errorf("authority returned status %d", code)
	}
	return nil
}
