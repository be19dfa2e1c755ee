package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/adapters/memory"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/application"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/ports"
	ledgermemory "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/ledger/memory"
	paymentsdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
)

type stubPush struct {
	result *ports.MpesaPushResult
	err    error
}

func (p *stubPush) RequestPush(_ context.Context, _ string, _ int64, _ string) (*ports.MpesaPushResult, error) {
	return p.result, p.err
}

type stubCards struct {
	result *ports.CardSessionResult
	err    error
}

func (c *stubCards) CreateSession(_ context.Context, _ string, _ int64) (*ports.CardSessionResult, error) {
	return c.result, c.err
}

type harness struct {
	router *gin.Engine
	repo   *memory.Repository
	ledger *ledgermemory.Ledger
}

func newHarness(push ports.MobilePush, cards ports.CardCheckout) *harness {
	gin.SetMode(gin.TestMode)
	repo := memory.NewRepository()
	ledger := ledgermemory.NewLedger()
	svc := application.NewService(repo, push, cards)
	router := gin.New()
	NewHandler(svc, ledger).Register(router.Group("/v1"))
	return &harness{router: router, repo: repo, ledger: ledger}
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body == "" {
		reader = bytes.NewBuffer(nil)
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)
	return recorder
}

func (h *harness) placeOrder(t *testing.T) orderResponse {
	t.Helper()
	recorder := h.do(http.MethodPost, "/v1/orders",
		`{"customer_name":"Wanjiku Kamau","customer_phone":"254712345678","items":["Maize seed 10kg"],"total":5400}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	var response orderResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return response
}

func TestPlaceOrder(t *testing.T) {
	h := newHarness(nil, nil)
	response := h.placeOrder(t)
	require.Equal(t, "unpaid", response.PaymentStatus)
	require.Equal(t, "processing", response.Status)
	require.Equal(t, "KES", response.Currency)
	require.NotEmpty(t, response.Reference)
	require.Len(t, response.History, 1)
}

func TestPlaceOrderValidation(t *testing.T) {
	h := newHarness(nil, nil)
	recorder := h.do(http.MethodPost, "/v1/orders", `{"items":["x"],"total":100}`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, recorder.Header().Get("Content-Type"), "application/problem+json")
}

func TestGetOrder(t *testing.T) {
	h := newHarness(nil, nil)
	placed := h.placeOrder(t)

	recorder := h.do(http.MethodGet, "/v1/orders/"+placed.ID, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = h.do(http.MethodGet, "/v1/orders/"+uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = h.do(http.MethodGet, "/v1/orders/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestListOrders(t *testing.T) {
	h := newHarness(nil, nil)
	h.placeOrder(t)
	h.placeOrder(t)

	recorder := h.do(http.MethodGet, "/v1/orders", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var orders []orderResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &orders))
	require.Len(t, orders, 2)
}

func TestInitiateMpesaPayment(t *testing.T) {
	push := &stubPush{result: &ports.MpesaPushResult{CheckoutRequestID: "ws_CO_191220191020363925", CustomerMessage: "Success"}}
	h := newHarness(push, nil)
	placed := h.placeOrder(t)

	recorder := h.do(http.MethodPost, "/v1/orders/"+placed.ID+"/payments/mpesa", `{"phone":"254798765432"}`)
	require.Equal(t, http.StatusAccepted, recorder.Code)

	var response mpesaPushResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Equal(t, "ws_CO_191220191020363925", response.CheckoutRequestID)

	stored, err := h.repo.GetByID(context.Background(), uuid.MustParse(placed.ID))
	require.NoError(t, err)
	require.Equal(t, "ws_CO_191220191020363925", stored.MpesaCheckoutID)
}

func TestInitiateCardPayment(t *testing.T) {
	cards := &stubCards{result: &ports.CardSessionResult{SessionID: "cs_mock_abc", RedirectURL: "https://pay.example/cs_mock_abc"}}
	h := newHarness(nil, cards)
	placed := h.placeOrder(t)

	recorder := h.do(http.MethodPost, "/v1/orders/"+placed.ID+"/payments/card", "")
	require.Equal(t, http.StatusCreated, recorder.Code)

	var response cardSessionResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Equal(t, "cs_mock_abc", response.SessionID)
}

func TestInitiateCardPaymentWithoutRail(t *testing.T) {
	h := newHarness(nil, nil)
	placed := h.placeOrder(t)

	recorder := h.do(http.MethodPost, "/v1/orders/"+placed.ID+"/payments/card", "")
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
}

func TestAdvanceFulfillment(t *testing.T) {
	h := newHarness(nil, nil)
	placed := h.placeOrder(t)

	recorder := h.do(http.MethodPost, "/v1/orders/"+placed.ID+"/fulfillment", `{"status":"shipped","note":"left the depot"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response orderResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Equal(t, "shipped", response.Status)

	// Regression is a conflict.
	recorder = h.do(http.MethodPost, "/v1/orders/"+placed.ID+"/fulfillment", `{"status":"processing"}`)
	require.Equal(t, http.StatusConflict, recorder.Code)
}

func TestListLedger(t *testing.T) {
	h := newHarness(nil, nil)
	placed := h.placeOrder(t)
	orderID := uuid.MustParse(placed.ID)

	require.NoError(t, h.ledger.Append(context.Background(), &paymentsdomain.LedgerEntry{
		ID:         uuid.New(),
		OrderID:    orderID,
		Amount:     5400,
		Receipt:    "NLJ7RT61SV",
		Provider:   domain.ProviderMpesa,
		Outcome:    paymentsdomain.OutcomeSuccess,
		RecordedBy: "mpesa-callback",
		RecordedAt: time.Now().UTC(),
	}))

	recorder := h.do(http.MethodGet, "/v1/orders/"+placed.ID+"/ledger", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var entries []ledgerEntryResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "NLJ7RT61SV", entries[0].Receipt)

	recorder = h.do(http.MethodGet, "/v1/orders/"+uuid.NewString()+"/ledger", "")
	require.Equal(t, http.StatusNotFound, recorder.Code)
}
