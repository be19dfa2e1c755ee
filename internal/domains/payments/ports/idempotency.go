package ports

import (
	"context"
	"errors"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
)

// ErrAlreadyProcessed indicates the provider event was applied before.
var ErrAlreadyProcessed = errors.New("provider event already processed")

// IdempotencyLedger is a durable set of already-processed provider event
// identifiers, keyed per provider namespace since identifier formats are not
// mutually unique across providers. Entries never expire: providers may
// redeliver days later.
type IdempotencyLedger interface {
	// MarkProcessed records the event id as a single atomic check-and-mark;
	// a duplicate yields ErrAlreadyProcessed. Implementations backed by the
	// relational store participate in the surrounding unit of work.
	MarkProcessed(ctx context.Context, provider ordersdomain.Provider, eventID string) error
}
