package http

import (
	"time"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	paymentsdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
)

type placeOrderRequest struct {
	CustomerName  string   `json:"customer_name" binding:"required"`
	CustomerPhone string   `json:"customer_phone"`
	Items         []string `json:"items" binding:"required"`
	Total         int64    `json:"total" binding:"required"`
}

type advanceFulfillmentRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type initiateMpesaRequest struct {
	Phone string `json:"phone"`
}

type historyEntryResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type orderResponse struct {
	ID            string                 `json:"id"`
	Reference     string                 `json:"reference"`
	CustomerName  string                 `json:"customer_name"`
	CustomerPhone string                 `json:"customer_phone,omitempty"`
	Items         []string               `json:"items"`
	Total         int64                  `json:"total"`
	Currency      string                 `json:"currency"`
	PaymentStatus string                 `json:"payment_status"`
	Status        string                 `json:"status"`
	History       []historyEntryResponse `json:"history"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

type mpesaPushResponse struct {
	CheckoutRequestID string `json:"checkout_request_id"`
	CustomerMessage   string `json:"customer_message,omitempty"`
}

type cardSessionResponse struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type ledgerEntryResponse struct {
	ID         string    `json:"id"`
	Amount     int64     `json:"amount"`
	Receipt    string    `json:"receipt,omitempty"`
	Provider   string    `json:"provider"`
	Outcome    string    `json:"outcome"`
	RecordedBy string    `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
}

func toOrderResponse(order *domain.Order) orderResponse {
	history := make([]historyEntryResponse, 0, len(order.History))
	for _, entry := range order.History {
		history = append(history, historyEntryResponse{
			Status:    entry.Status,
			Message:   entry.Message,
			Timestamp: entry.Timestamp,
		})
	}
	return orderResponse{
		ID:            order.ID.String(),
		Reference:     order.Reference,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		Items:         order.Items,
		Total:         order.Total,
		Currency:      order.Currency,
		PaymentStatus: string(order.PaymentStatus),
		Status:        string(order.Status),
		History:       history,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

func toLedgerResponse(entries []*paymentsdomain.LedgerEntry) []ledgerEntryResponse {
	out := make([]ledgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ledgerEntryResponse{
			ID:         entry.ID.String(),
			Amount:     entry.Amount,
			Receipt:    entry.Receipt,
			Provider:   string(entry.Provider),
			Outcome:    string(entry.Outcome),
			RecordedBy: entry.RecordedBy,
			RecordedAt: entry.RecordedAt,
		})
	}
	return out
}
