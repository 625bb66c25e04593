package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"academy_app_echo/internal/models"
)

const mercadoPagoDefaultBaseURL = "https://api.mercadopago.com"

// MercadoPago talks to the Mercado Pago REST API directly. The official
// SDK hides the HTTP status behind an internal error type, and the
// reconciler needs to tell a 404 (test ping, classified ignored) apart
// from a transport failure.
type MercadoPago struct {
	baseURL       string
	accessToken   string
	webhookSecret string
	client        *http.Client
}

// NewMercadoPago builds the adapter. baseURL may be empty to use the
// production API host. webhookSecret may be empty; inbound signature
// verification is then skipped.
func NewMercadoPago(baseURL, accessToken, webhookSecret string) *MercadoPago {
	if baseURL == "" {
		baseURL = mercadoPagoDefaultBaseURL
	}
	return &MercadoPago{
		baseURL:       strings.TrimRight(baseURL, "/"),
		accessToken:   accessToken,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *MercadoPago) Name() models.PaymentGateway {
	return models.PaymentGatewayMercadoPago
}

// mpNotification is the IPN envelope Mercado Pago POSTs to the webhook
// endpoint. Only data.id is trusted.
type mpNotification struct {
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (g *MercadoPago) ParseNotification(body []byte) (*Notification, bool) {
	var env mpNotification
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, false
	}

	kind := env.Type
	if kind == "" {
		kind = env.Topic
	}
	if kind == "" && env.Data.ID == "" {
		return nil, false
	}

	// Actions arrive as "payment.created" / "payment.updated".
	action := env.Action
	if i := strings.LastIndex(action, "."); i >= 0 {
		action = action[i+1:]
	}

	return &Notification{Kind: kind, Action: action, ResourceID: env.Data.ID}, true
}

// VerifyNotification validates the x-signature header: a ts/v1 pair
// where v1 is HMAC-SHA256 over the manifest
// "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
func (g *MercadoPago) VerifyNotification(body []byte, headers http.Header) error {
	if g.webhookSecret == "" {
		return nil
	}

	sig := headers.Get("x-signature")
	if sig == "" {
		return fmt.Errorf("mercadopago: missing x-signature header")
	}

	var ts, v1 string
	for _, part := range strings.Split(sig, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return fmt.Errorf("mercadopago: malformed x-signature header")
	}

	n, ok := g.ParseNotification(body)
	if !ok {
		return fmt.Errorf("mercadopago: cannot verify signature of unparseable body")
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;",
		strings.ToLower(n.ResourceID), headers.Get("x-request-id"), ts)

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return fmt.Errorf("mercadopago: signature mismatch")
	}
	return nil
}

// mpPayment is the subset of GET /v1/payments/{id} the reconciler
// needs.
type mpPayment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
	ExternalReference string  `json:"external_reference"`
	PaymentMethodID   string  `json:"payment_method_id"`
	Installments      int     `json:"installments"`
}

func (g *MercadoPago) FetchPayment(ctx context.Context, resourceID string) (*Payment, error) {
	var resp mpPayment
	status, err := g.doJSON(ctx, http.MethodGet, "/v1/payments/"+resourceID, nil, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrPaymentNotFound
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("mercadopago: fetch payment %s returned status %d", resourceID, status)
	}

	return &Payment{
		GatewayPaymentID:  fmt.Sprintf("%d", resp.ID),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		Amount:            resp.TransactionAmount,
		Currency:          resp.CurrencyID,
		ExternalReference: resp.ExternalReference,
		PaymentMethod:     resp.PaymentMethodID,
		Installments:      resp.Installments,
	}, nil
}

// MapStatus translates Mercado Pago's status vocabulary into the
// canonical one.
func (g *MercadoPago) MapStatus(raw string) models.PaymentStatus {
	switch raw {
	case "approved", "authorized":
		return models.PaymentStatusSucceeded
	case "pending", "in_process", "in_mediation":
		return models.PaymentStatusPending
	case "rejected", "charged_back":
		return models.PaymentStatusFailed
	case "cancelled":
		return models.PaymentStatusCanceled
	case "refunded":
		return models.PaymentStatusRefunded
	default:
		return models.PaymentStatusUnknown
	}
}

type mpPreferenceRequest struct {
	Items             []mpPreferenceItem `json:"items"`
	ExternalReference string             `json:"external_reference"`
	NotificationURL   string             `json:"notification_url,omitempty"`
	BackURLs          *mpBackURLs        `json:"back_urls,omitempty"`
	Payer             *mpPayer           `json:"payer,omitempty"`
}

type mpPreferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id,omitempty"`
}

type mpBackURLs struct {
	Success string `json:"success,omitempty"`
}

type mpPayer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type mpPreferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

func (g *MercadoPago) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	payload := mpPreferenceRequest{
		Items: []mpPreferenceItem{{
			Title:      req.Title,
			Quantity:   1,
			UnitPrice:  req.Amount,
			CurrencyID: req.Currency,
		}},
		ExternalReference: req.OrderID,
		NotificationURL:   req.CallbackURL,
	}
	if req.SuccessURL != "" {
		payload.BackURLs = &mpBackURLs{Success: req.SuccessURL}
	}
	if req.PayerEmail != "" {
		payload.Payer = &mpPayer{Name: req.PayerName, Email: req.PayerEmail}
	}

	var resp mpPreferenceResponse
	status, err := g.doJSON(ctx, http.MethodPost, "/checkout/preferences", payload, &resp)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("mercadopago: create preference returned status %d", status)
	}

	return &CheckoutSession{
		Token:       resp.ID,
		RedirectURL: resp.InitPoint,
		GatewayRef:  resp.ID,
	}, nil
}

func (g *MercadoPago) doJSON(ctx context.Context, method, endpoint string, payload, dest interface{}) (int, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("mercadopago: failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+endpoint, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("mercadopago: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("mercadopago: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return resp.StatusCode, fmt.Errorf("mercadopago: failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
