// Package notify delivers customer notification intents to the downstream
// messaging webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
)

// Sender posts notification intents as JSON to a configured webhook. It
// satisfies the payments ports.Sender contract.
type Sender struct {
	webhookURL string
	http       *http.Client
}

func NewSender(webhookURL string) (*Sender, error) {
	if strings.TrimSpace(webhookURL) == "" {
		return nil, errors.New("notification webhook URL is required")
	}
	return &Sender{
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: 5 * time.Second},
	}, nil
}

func (s *Sender) Send(ctx context.Context, intent domain.NotificationIntent) error {
	raw, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("notification delivery: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification delivery: unexpected status %s", resp.Status)
	}
	return nil
}
