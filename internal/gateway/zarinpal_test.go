package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newZarinpalTestServer(t *testing.T, status int, extra map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		resp := map[string]interface{}{"Status": status}
		for k, v := range extra {
			resp[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestRequestPaymentSuccess(t *testing.T) {
	srv := newZarinpalTestServer(t, 100, map[string]interface{}{"Authority": "A0001234"})
	defer srv.Close()

	client := NewZarinpalClient("merchant-1", srv.URL, srv.URL, "https://sandbox.zarinpal.com/pg/StartPay/", "http://localhost/callback")

	authority, err := client.RequestPayment(context.Background(), PaymentRequest{
		Amount:      108000,
		Description: "payment for order ORD-TEST",
	})
	require.NoError(t, err)
	assert.Equal(t, "A0001234", authority)
	assert.Equal(t, "https://sandbox.zarinpal.com/pg/StartPay/A0001234", client.StartPayURL(authority))
}

func TestRequestPaymentRejected(t *testing.T) {
	srv := newZarinpalTestServer(t, -2, nil)
	defer srv.Close()

	client := NewZarinpalClient("merchant-1", srv.URL, srv.URL, "", "")

	_, err := client.RequestPayment(context.Background(), PaymentRequest{Amount: 108000})
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, -2, gwErr.Code)
	assert.Equal(t, "invalid merchant id or ip address", gwErr.Reason)
}

func TestRequestPaymentUnknownCode(t *testing.T) {
	srv := newZarinpalTestServer(t, -99, nil)
	defer srv.Close()

	client := NewZarinpalClient("merchant-1", srv.URL, srv.URL, "", "")

	_, err := client.RequestPayment(context.Background(), PaymentRequest{Amount: 108000})
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, -99, gwErr.Code)
	assert.Equal(t, "unknown payment gateway error", gwErr.Reason)
}

func TestVerifyPaymentSuccess(t *testing.T) {
	srv := newZarinpalTestServer(t, 100, map[string]interface{}{"RefID": 123456789})
	defer srv.Close()

	client := NewZarinpalClient("merchant-1", srv.URL, srv.URL, "", "")

	result, err := client.VerifyPayment(context.Background(), "A0001234", 108000)
	require.NoError(t, err)
	assert.Equal(t, "123456789", result.RefID)
	assert.False(t, result.AlreadyVerified)
}

func TestVerifyPaymentAlreadyVerified(t *testing.T) {
	srv := newZarinpalTestServer(t, 101, map[string]interface{}{"RefID": "987654321"})
	defer srv.Close()

	client := NewZarinpalClient("merchant-1", srv.URL, srv.URL, "", "")

	result, err := client.VerifyPayment(context.Background(), "A0001234", 108000)
	require.NoError(t, err)
	assert.Equal(t, "987654321", result.RefID)
	assert.True(t, result.AlreadyVerified)
}

func TestVerifyPaymentRejected(t *testing.T) {
	srv := newZarinpalTestServer(t, -21, nil)
	defer srv.Close()

	client := NewZarinpalClient("merchant-1", srv.URL, srv.URL, "", "")

	_, err := client.VerifyPayment(context.Background(), "A0001234", 108000)
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "no financial operation found for this transaction", gwErr.Reason)
}

func TestReasonForCode(t *testing.T) {
	assert.Equal(t, "payment already verified", ReasonForCode(101))
	assert.Equal(t, "unknown payment gateway error", ReasonForCode(-1234))
}
