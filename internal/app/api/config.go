package api

import (
	"fmt"
	"os"
	"strings"

	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port        string
	PostgresDSN string
	RedisAddr   string

	// Daraja mobile money credentials. The rail stays disabled until all
	// required fields are present.
	DarajaBaseURL        string
	DarajaConsumerKey    string
	DarajaConsumerSecret string
	DarajaShortcode      string
	DarajaPasskey        string
	DarajaCallbackURL    string

	// Hosted card checkout. An empty base URL selects mock mode.
	CheckoutBaseURL     string
	CheckoutAPIKey      string
	CheckoutReturnURL   string
	CheckoutConfirmPath string

	// PaystackSecret signs inbound card gateway webhooks.
	PaystackSecret string

	NotifyWebhookURL string

	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                 envDefault("PORT", "8080"),
		PostgresDSN:          strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:            strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		DarajaBaseURL:        envDefault("DARAJA_BASE_URL", "https://sandbox.safaricom.co.ke"),
		DarajaConsumerKey:    strings.TrimSpace(os.Getenv("DARAJA_CONSUMER_KEY")),
		DarajaConsumerSecret: strings.TrimSpace(os.Getenv("DARAJA_CONSUMER_SECRET")),
		DarajaShortcode:      strings.TrimSpace(os.Getenv("DARAJA_SHORTCODE")),
		DarajaPasskey:        strings.TrimSpace(os.Getenv("DARAJA_PASSKEY")),
		DarajaCallbackURL:    strings.TrimSpace(os.Getenv("DARAJA_CALLBACK_URL")),
		CheckoutBaseURL:      strings.TrimSpace(os.Getenv("CHECKOUT_BASE_URL")),
		CheckoutAPIKey:       strings.TrimSpace(os.Getenv("CHECKOUT_API_KEY")),
		CheckoutReturnURL:    strings.TrimSpace(os.Getenv("CHECKOUT_RETURN_URL")),
		CheckoutConfirmPath:  envDefault("CHECKOUT_CONFIRM_PATH", "/v1/payments/callbacks/card"),
		PaystackSecret:       strings.TrimSpace(os.Getenv("PAYSTACK_SECRET")),
		NotifyWebhookURL:     strings.TrimSpace(os.Getenv("NOTIFY_WEBHOOK_URL")),
		TemporalAddress:      envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:    envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:     isTruthy(os.Getenv("TEMPORAL_DISABLED")),
	}
	if cfg.PaystackSecret == "" {
		return Config{}, fmt.Errorf("PAYSTACK_SECRET is required to verify gateway webhooks")
	}
	return cfg, nil
}

// DarajaConfigured reports whether the mobile money rail has full credentials.
func (c Config) DarajaConfigured() bool {
	return c.DarajaConsumerKey != "" && c.DarajaConsumerSecret != "" &&
		c.DarajaShortcode != "" && c.DarajaPasskey != "" && c.DarajaCallbackURL != ""
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
