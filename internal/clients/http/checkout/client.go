// Package checkout creates hosted card checkout sessions. When no gateway
// base URL is configured the client runs in mock mode and fabricates a
// session locally, which is the only mode exercised outside production.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config carries the gateway endpoint and redirect targets.
type Config struct {
	BaseURL     string
	APIKey      string
	ReturnURL   string
	ConfirmPath string
}

// Session is a created hosted checkout session.
type Session struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// MockMode reports whether sessions are fabricated locally.
func (c *Client) MockMode() bool {
	return strings.TrimSpace(c.cfg.BaseURL) == ""
}

type createSessionPayload struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	ReturnURL string `json:"return_url"`
}

// CreateSession opens a hosted checkout session for the given order
// reference. In mock mode the session id is minted locally and the redirect
// URL points straight at the confirmation endpoint.
func (c *Client) CreateSession(ctx context.Context, reference string, amount int64) (*Session, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, errors.New("session reference is required")
	}
	if amount <= 0 {
		return nil, errors.New("session amount must be positive")
	}
	if c.MockMode() {
		sessionID := "cs_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
		return &Session{
			SessionID:   sessionID,
			RedirectURL: fmt.Sprintf("%s?session_id=%s&reference=%s", c.cfg.ConfirmPath, sessionID, reference),
		}, nil
	}

	raw, err := json.Marshal(createSessionPayload{
		Reference: reference,
		Amount:    amount,
		Currency:  "KES",
		ReturnURL: c.cfg.ReturnURL,
	})
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkout session request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("checkout session request: unexpected status %s", resp.Status)
	}
	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("checkout session response: %w", err)
	}
	if session.SessionID == "" {
		return nil, errors.New("checkout session response missing session_id")
	}
	return &session, nil
}
