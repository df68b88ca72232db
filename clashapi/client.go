// Package clashapi is a read-only client for the game's public REST API.
package clashapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.clashofclans.com/v1"

var ErrNotFound = errors.New("not found in game API")

// APIError is a non-2xx response from the game API.
type APIError struct {
	StatusCode int    `json:"-"`
	Reason     string `json:"reason"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("game API returned %d (%s): %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("game API returned %d (%s)", e.StatusCode, e.Reason)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) GetClan(ctx context.Context, tag string) (*Clan, error) {
	var clan Clan
	if _, err := c.get(ctx, "/clans/"+url.PathEscape(tag), &clan); err != nil {
		return nil, fmt.Errorf("get clan %s: %w", tag, err)
	}
	return &clan, nil
}

func (c *Client) GetCurrentWar(ctx context.Context, tag string) (*War, error) {
	var war War
	raw, err := c.get(ctx, "/clans/"+url.PathEscape(tag)+"/currentwar", &war)
	if err != nil {
		return nil, fmt.Errorf("get current war of %s: %w", tag, err)
	}
	war.Raw = raw
	return &war, nil
}

func (c *Client) GetPlayer(ctx context.Context, tag string) (*Player, error) {
	var player Player
	if _, err := c.get(ctx, "/players/"+url.PathEscape(tag), &player); err != nil {
		return nil, fmt.Errorf("get player %s: %w", tag, err)
	}
	return &player, nil
}

func (c *Client) get(ctx context.Context, path string, dst interface{}) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil || apiErr.Reason == "" {
			apiErr.Reason = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return body, nil
}
