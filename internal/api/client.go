// Package api is the HTTP client for the race server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coderace-dev/coderace/internal/model"
)

const requestTimeout = 10 * time.Second

// Client talks to the race server's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client for the given server base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type snippetResponse struct {
	Text        string `json:"text"`
	Snippet     string `json:"snippet"`
	Code        string `json:"code"`
	SnippetCode string `json:"snippet_code"`
}

// GetSnippet fetches a random snippet for the language. The server has
// used several field names for the snippet body over time; all are
// accepted.
func (c *Client) GetSnippet(ctx context.Context, language string) (string, error) {
	var resp snippetResponse
	if err := c.getJSON(ctx, "/snippets/"+language, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch snippet: %w", err)
	}
	for _, text := range []string{resp.Text, resp.Snippet, resp.Code, resp.SnippetCode} {
		if text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("snippet response is empty")
}

// GetLanguages fetches the available snippet languages.
func (c *Client) GetLanguages(ctx context.Context) ([]string, error) {
	var resp struct {
		Languages []string `json:"languages"`
	}
	if err := c.getJSON(ctx, "/snippets", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch languages: %w", err)
	}
	return resp.Languages, nil
}

// CreateRoom creates a multiplayer room hosted by the given user.
func (c *Client) CreateRoom(ctx context.Context, hostUserID, language string, maxPlayers int) (string, error) {
	body := map[string]any{
		"user_id":     hostUserID,
		"max_players": maxPlayers,
	}
	if language != "" {
		body["language"] = language
	}
	var resp struct {
		RoomCode string `json:"room_code"`
	}
	if err := c.postJSON(ctx, "/games/create", body, &resp); err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}
	if resp.RoomCode == "" {
		return "", fmt.Errorf("server returned no room code")
	}
	return resp.RoomCode, nil
}

// JoinRoom registers the user as a participant of the room.
func (c *Client) JoinRoom(ctx context.Context, userID, roomCode string) error {
	body := map[string]any{
		"user_id":   userID,
		"room_code": strings.ToUpper(roomCode),
	}
	if err := c.postJSON(ctx, "/games/join", body, nil); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}
	return nil
}

// RoomState is the server's view of a room and its snippet.
type RoomState struct {
	Room            model.Room          `json:"game"`
	Participants    []model.Participant `json:"participants"`
	SnippetText     string              `json:"snippet_code"`
	SnippetLanguage string              `json:"snippet_language"`
}

// GetRoom fetches the room, its participants, and the race snippet.
func (c *Client) GetRoom(ctx context.Context, roomCode string) (RoomState, error) {
	var resp RoomState
	if err := c.getJSON(ctx, "/games/"+strings.ToUpper(roomCode), &resp); err != nil {
		return RoomState{}, fmt.Errorf("failed to fetch room: %w", err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := normalizeError(raw, resp.Status)
		log.Debug().Str("path", req.URL.Path).Int("status", resp.StatusCode).Str("message", msg).Msg("api request failed")
		return fmt.Errorf("%s", msg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// normalizeError derives one human-readable message from an error
// body. The server answers either with a flat detail string or with a
// list of field errors, which are joined by "; ".
func normalizeError(raw []byte, fallback string) string {
	var flat struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &flat); err == nil && flat.Detail != "" {
		return flat.Detail
	}

	var list struct {
		Detail []struct {
			Msg string `json:"msg"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(raw, &list); err == nil && len(list.Detail) > 0 {
		msgs := make([]string, 0, len(list.Detail))
		for _, item := range list.Detail {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fallback
}
