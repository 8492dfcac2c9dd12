// Package mattermost implements the NotificationSink port against the
// Mattermost REST v4 API. Only the delivery calls the core needs live here;
// the websocket command transport is a separate collaborator outside this
// module.
package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/akulikov/jirawatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.NotificationSink = (*Sink)(nil)

// Sink posts messages to Mattermost channels and users with a bot token.
type Sink struct {
	baseURL string
	token   string
	hc      *http.Client

	mu     sync.Mutex
	selfID string // bot user ID, resolved lazily and cached
}

// NewSink creates a sink for the given Mattermost server. baseURL is the
// server root without the /api/v4 suffix.
func NewSink(baseURL, token string, timeout time.Duration) *Sink {
	return &Sink{
		baseURL: baseURL,
		token:   token,
		hc:      &http.Client{Timeout: timeout},
	}
}

// SendToChannel posts a message into the given channel.
func (s *Sink) SendToChannel(ctx context.Context, channelID, text string) error {
	return s.createPost(ctx, channelID, text)
}

// SendToIdentity delivers a direct message to the user registered under the
// given email address. The DM channel is created on demand; Mattermost
// returns the existing one when it already exists.
func (s *Sink) SendToIdentity(ctx context.Context, identity, text string) error {
	var user struct {
		ID string `json:"id"`
	}
	path := "/api/v4/users/email/" + identity
	if err := s.do(ctx, http.MethodGet, path, nil, &user); err != nil {
		return fmt.Errorf("lookup user %q: %w", identity, err)
	}

	selfID, err := s.me(ctx)
	if err != nil {
		return err
	}

	var channel struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/api/v4/channels/direct", []string{selfID, user.ID}, &channel); err != nil {
		return fmt.Errorf("open direct channel with %q: %w", identity, err)
	}

	return s.createPost(ctx, channel.ID, text)
}

func (s *Sink) createPost(ctx context.Context, channelID, text string) error {
	body := map[string]string{
		"channel_id": channelID,
		"message":    text,
	}
	if err := s.do(ctx, http.MethodPost, "/api/v4/posts", body, nil); err != nil {
		return fmt.Errorf("post to channel %q: %w", channelID, err)
	}
	return nil
}

// me resolves and caches the bot's own user ID.
func (s *Sink) me(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selfID != "" {
		return s.selfID, nil
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodGet, "/api/v4/users/me", nil, &user); err != nil {
		return "", fmt.Errorf("resolve bot user: %w", err)
	}

	s.selfID = user.ID
	return s.selfID, nil
}

// do performs one authenticated JSON request. Payloads are always parsed
// strictly as JSON into the expected shape; there is no generic fallback.
func (s *Sink) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response from %s: %w", path, err)
		}
	}
	return nil
}
