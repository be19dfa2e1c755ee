package ports

import "context"

// MobilePush initiates an STK-style push payment on the customer's handset.
// Implementations own the provider token lifecycle; calls carry timeouts and
// are not retried internally.
type MobilePush interface {
	RequestPush(ctx context.Context, phone string, amount int64, reference string) (*MpesaPushResult, error)
}

// CardCheckout creates hosted card-checkout sessions.
type CardCheckout interface {
	CreateSession(ctx context.Context, reference string, amount int64) (*CardSessionResult, error)
}
