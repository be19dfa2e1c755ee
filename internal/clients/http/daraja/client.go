// Package daraja is a minimal client for the Safaricom Daraja API: OAuth
// token acquisition and Lipa na M-Pesa STK push initiation.
package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TokenTTL is slightly under the provider's advertised 3599s expiry so a
// cached token is never presented at the edge of its lifetime.
const TokenTTL = 3500 * time.Second

// TokenCache stores the bearer token between calls.
type TokenCache interface {
	Get(ctx context.Context) (string, bool)
	Put(ctx context.Context, token string, ttl time.Duration)
}

// Config carries the Daraja credentials and endpoints.
type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string
	Passkey        string
	CallbackURL    string
}

// Client calls Daraja with a bounded-timeout HTTP client; it never retries
// internally, the caller owns retry policy.
type Client struct {
	cfg   Config
	http  *http.Client
	cache TokenCache
	now   func() time.Time
}

// Option configures optional client collaborators.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// WithTokenCache overrides the default in-process token cache.
func WithTokenCache(cache TokenCache) Option {
	return func(c *Client) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// NewClient instantiates the Daraja client with sane defaults.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("daraja base URL is required")
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, errors.New("daraja consumer credentials are required")
	}
	client := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: 10 * time.Second},
		cache: NewMemoryTokenCache(),
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// Token returns a cached bearer token or fetches a fresh one.
func (c *Client) Token(ctx context.Context) (string, error) {
	if token, ok := c.cache.Get(ctx); ok {
		return token, nil
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("daraja token request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("daraja token request: unexpected status %s", resp.Status)
	}
	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("daraja token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("daraja token response missing access_token")
	}
	c.cache.Put(ctx, body.AccessToken, TokenTTL)
	return body.AccessToken, nil
}

// STKPushRequest initiates a push for the given amount against a handset.
type STKPushRequest struct {
	Phone     string
	Amount    int64
	Reference string
	Narrative string
}

// STKPushResponse echoes the provider's acceptance of the push request.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// InitiateSTKPush asks the provider to push a payment prompt to the handset.
// The returned CheckoutRequestID must be stored on the order before this call
// returns to the customer, because the result callback carries it as the only
// correlation handle.
func (c *Client) InitiateSTKPush(ctx context.Context, push STKPushRequest) (*STKPushResponse, error) {
	if strings.TrimSpace(push.Phone) == "" {
		return nil, errors.New("push phone number is required")
	}
	if push.Amount <= 0 {
		return nil, errors.New("push amount must be positive")
	}
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().UTC().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(c.cfg.Shortcode + c.cfg.Passkey + timestamp))
	payload := stkPushPayload{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            push.Amount,
		PartyA:            push.Phone,
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       push.Phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  push.Reference,
		TransactionDesc:   push.Narrative,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/mpesa/stkpush/v1/processrequest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daraja stk push: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("daraja stk push response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daraja stk push: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var parsed STKPushResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("daraja stk push response: %w", err)
	}
	if parsed.ResponseCode != "0" {
		return nil, fmt.Errorf("daraja stk push rejected: %s", parsed.ResponseDescription)
	}
	if parsed.CheckoutRequestID == "" {
		return nil, errors.New("daraja stk push response missing CheckoutRequestID")
	}
	return &parsed, nil
}
