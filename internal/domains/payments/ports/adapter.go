package ports

import (
	"context"
	"net/http"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
)

// ProviderAdapter translates one provider's wire format into a normalized
// PaymentEvent. Adapters are pure functions of their input and never touch
// state; signature checks happen here, before anything else sees the payload.
//
// A (nil, nil) return is the no-op sentinel: the payload was syntactically
// valid but carries nothing to reconcile (e.g. a webhook event type outside
// the charge lifecycle) and must be acknowledged without further processing.
type ProviderAdapter interface {
	Provider() ordersdomain.Provider
	Normalize(body []byte, header http.Header) (*domain.PaymentEvent, error)
}

// TxManager scopes a function to one atomic unit of work. The relational
// implementation opens a database transaction and threads it through the
// context so repositories, the idempotency ledger, and the transaction
// ledger all write within it.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
