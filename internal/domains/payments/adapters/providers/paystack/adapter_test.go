package paystack

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
)

const secret = "sk_test_agrihub"

const chargeSuccess = `{
  "event": "charge.success",
  "data": {
    "id": 302961,
    "reference": "T685312322670591",
    "amount": 500000,
    "currency": "KES",
    "metadata": {"order_ref": "MA-9F1C2D3E4A"}
  }
}`

func signedHeader(body string) http.Header {
	header := http.Header{}
	header.Set(SignatureHeader, Sign(secret, []byte(body)))
	return header
}

func TestNormalize_ChargeSuccess(t *testing.T) {
	event, err := New(secret).Normalize([]byte(chargeSuccess), signedHeader(chargeSuccess))
	require.NoError(t, err)
	require.NotNil(t, event)
	require.Equal(t, "302961", event.ProviderEventID)
	require.Equal(t, "MA-9F1C2D3E4A", event.CorrelationKey)
	require.Equal(t, domain.OutcomeSuccess, event.Outcome)
	require.Equal(t, int64(5000), event.Amount)
	require.Equal(t, "T685312322670591", event.Receipt)
	require.NoError(t, event.Validate())
}

func TestNormalize_RejectsMissingSignature(t *testing.T) {
	_, err := New(secret).Normalize([]byte(chargeSuccess), http.Header{})
	require.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestNormalize_RejectsTamperedBody(t *testing.T) {
	header := signedHeader(chargeSuccess)
	tampered := []byte(`{"event":"charge.success","data":{"id":302961,"amount":1,"metadata":{"order_ref":"MA-9F1C2D3E4A"}}}`)
	_, err := New(secret).Normalize(tampered, header)
	require.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestNormalize_RejectsWrongSecret(t *testing.T) {
	header := http.Header{}
	header.Set(SignatureHeader, Sign("sk_test_other", []byte(chargeSuccess)))
	_, err := New(secret).Normalize([]byte(chargeSuccess), header)
	require.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestNormalize_OtherEventTypesAreNoOps(t *testing.T) {
	body := `{"event": "transfer.success", "data": {"id": 99}}`
	event, err := New(secret).Normalize([]byte(body), signedHeader(body))
	require.NoError(t, err)
	require.Nil(t, event)
}

func TestNormalize_RejectsMissingOrderRef(t *testing.T) {
	body := `{"event": "charge.success", "data": {"id": 302961, "amount": 500000, "metadata": {}}}`
	_, err := New(secret).Normalize([]byte(body), signedHeader(body))
	require.ErrorIs(t, err, domain.ErrMalformedPayload)
}
