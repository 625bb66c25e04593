package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academy_app_echo/internal/models"
)

func TestMercadoPagoParseNotification(t *testing.T) {
	g := NewMercadoPago("", "token", "")

	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantKind   string
		wantAction string
		wantID     string
	}{
		{
			name:       "payment updated",
			body:       `{"type":"payment","action":"payment.updated","data":{"id":"PAY123"}}`,
			wantOK:     true,
			wantKind:   "payment",
			wantAction: "updated",
			wantID:     "PAY123",
		},
		{
			name:       "payment created via topic",
			body:       `{"topic":"payment","action":"payment.created","data":{"id":"77"}}`,
			wantOK:     true,
			wantKind:   "payment",
			wantAction: "created",
			wantID:     "77",
		},
		{
			name:     "merchant order envelope",
			body:     `{"type":"merchant_order","data":{"id":"MO-1"}}`,
			wantOK:   true,
			wantKind: "merchant_order",
			wantID:   "MO-1",
		},
		{
			name:   "malformed json",
			body:   `{"type":"payment"`,
			wantOK: false,
		},
		{
			name:   "empty object",
			body:   `{}`,
			wantOK: false,
		},
		{
			name:   "not json at all",
			body:   `ping`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := g.ParseNotification([]byte(tt.body))
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantKind, n.Kind)
			assert.Equal(t, tt.wantAction, n.Action)
			assert.Equal(t, tt.wantID, n.ResourceID)
		})
	}
}

func TestMercadoPagoMapStatus(t *testing.T) {
	g := NewMercadoPago("", "token", "")

	tests := []struct {
		raw  string
		want models.PaymentStatus
	}{
		{"approved", models.PaymentStatusSucceeded},
		{"authorized", models.PaymentStatusSucceeded},
		{"pending", models.PaymentStatusPending},
		{"in_process", models.PaymentStatusPending},
		{"in_mediation", models.PaymentStatusPending},
		{"rejected", models.PaymentStatusFailed},
		{"charged_back", models.PaymentStatusFailed},
		{"cancelled", models.PaymentStatusCanceled},
		{"refunded", models.PaymentStatusRefunded},
		{"some_future_status", models.PaymentStatusUnknown},
		{"", models.PaymentStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, g.MapStatus(tt.raw))
		})
	}
}

func TestMercadoPagoFetchPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/v1/payments/123":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"id": 123,
				"status": "approved",
				"status_detail": "accredited",
				"transaction_amount": 149.9,
				"currency_id": "BRL",
				"external_reference": "order-abc",
				"payment_method_id": "pix",
				"installments": 1
			}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	g := NewMercadoPago(server.URL, "test-token", "")

	p, err := g.FetchPayment(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "123", p.GatewayPaymentID)
	assert.Equal(t, "approved", p.Status)
	assert.Equal(t, "accredited", p.StatusDetail)
	assert.Equal(t, 149.9, p.Amount)
	assert.Equal(t, "BRL", p.Currency)
	assert.Equal(t, "order-abc", p.ExternalReference)
	assert.Equal(t, "pix", p.PaymentMethod)
	assert.Equal(t, 1, p.Installments)

	_, err = g.FetchPayment(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestMercadoPagoVerifyNotification(t *testing.T) {
	secret := "shhh"
	body := []byte(`{"type":"payment","action":"payment.updated","data":{"id":"PAY9"}}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("id:pay9;request-id:req-1;ts:1700000000;"))
	v1 := hex.EncodeToString(mac.Sum(nil))

	headers := http.Header{}
	headers.Set("x-signature", "ts=1700000000,v1="+v1)
	headers.Set("x-request-id", "req-1")

	g := NewMercadoPago("", "token", secret)
	assert.NoError(t, g.VerifyNotification(body, headers))

	headers.Set("x-signature", "ts=1700000000,v1=deadbeef")
	assert.Error(t, g.VerifyNotification(body, headers))

	headers.Del("x-signature")
	assert.Error(t, g.VerifyNotification(body, headers))

	// no secret configured: verification is skipped entirely
	open := NewMercadoPago("", "token", "")
	assert.NoError(t, open.VerifyNotification(body, http.Header{}))
}

func TestMercadoPagoCreateCheckout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pref-1","init_point":"https://mp.example/checkout/pref-1"}`)
	}))
	defer server.Close()

	g := NewMercadoPago(server.URL, "test-token", "")
	session, err := g.CreateCheckout(context.Background(), CheckoutRequest{
		OrderID:  "order-abc",
		Amount:   149.9,
		Currency: "BRL",
		Title:    "Course: Go from scratch",
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", session.Token)
	assert.Equal(t, "https://mp.example/checkout/pref-1", session.RedirectURL)
}
