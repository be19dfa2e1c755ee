package daraja

import (
	"context"
	"errors"

	darajaclient "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/clients/http/daraja"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/ports"
)

// Pusher implements the outbound mobile push port on the Daraja client.
type Pusher struct {
	client *darajaclient.Client
}

// NewPusher wires the Daraja HTTP client into a push adapter.
func NewPusher(client *darajaclient.Client) *Pusher {
	return &Pusher{client: client}
}

// RequestPush asks the gateway to prompt the handset for the order total.
func (p *Pusher) RequestPush(ctx context.Context, phone string, amount int64, reference string) (*ports.MpesaPushResult, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("mobile push adapter not configured")
	}
	resp, err := p.client.InitiateSTKPush(ctx, darajaclient.STKPushRequest{
		Phone:     phone,
		Amount:    amount,
		Reference: reference,
		Narrative: "Mel-Agro order " + reference,
	})
	if err != nil {
		return nil, err
	}
	return &ports.MpesaPushResult{
		CheckoutRequestID: resp.CheckoutRequestID,
		CustomerMessage:   resp.CustomerMessage,
	}, nil
}

var _ ports.MobilePush = (*Pusher)(nil)
