package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"academy_app_echo/internal/models"
)

// Midtrans wraps the official midtrans-go clients: snap for checkout
// sessions, coreapi for re-fetching the authoritative transaction
// state.
type Midtrans struct {
	snapClient snap.Client
	coreClient coreapi.Client
	serverKey  string
}

func NewMidtrans(serverKey string, production bool) *Midtrans {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(serverKey, env)

	var c coreapi.Client
	c.New(serverKey, env)

	return &Midtrans{snapClient: s, coreClient: c, serverKey: serverKey}
}

func (g *Midtrans) Name() models.PaymentGateway {
	return models.PaymentGatewayMidtrans
}

// midtransNotification is the HTTP notification Midtrans POSTs. The
// transaction id is the order id we issued at checkout; the status in
// the body is only a pointer, the state is re-fetched via coreapi.
type midtransNotification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

func (g *Midtrans) ParseNotification(body []byte) (*Notification, bool) {
	var env midtransNotification
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, false
	}
	if env.OrderID == "" {
		return nil, false
	}
	return &Notification{Kind: "payment", Action: "updated", ResourceID: env.OrderID}, true
}

// VerifyNotification checks Midtrans' notification signature:
// SHA512(order_id + status_code + gross_amount + server_key).
func (g *Midtrans) VerifyNotification(body []byte, _ http.Header) error {
	var env midtransNotification
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("midtrans: cannot verify signature of unparseable body")
	}
	if env.SignatureKey == "" {
		return fmt.Errorf("midtrans: missing signature_key")
	}

	sum := sha512.Sum512([]byte(env.OrderID + env.StatusCode + env.GrossAmount + g.serverKey))
	expected := hex.EncodeToString(sum[:])
	if expected != env.SignatureKey {
		return fmt.Errorf("midtrans: signature mismatch")
	}
	return nil
}

func (g *Midtrans) FetchPayment(ctx context.Context, resourceID string) (*Payment, error) {
	_ = ctx // coreapi does not take a context

	resp, err := g.coreClient.CheckTransaction(resourceID)
	if err != nil {
		if err.StatusCode == http.StatusNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("midtrans: check transaction %s: %w", resourceID, err)
	}
	if resp.TransactionStatus == "" && resp.StatusCode == "404" {
		return nil, ErrPaymentNotFound
	}

	amount, _ := strconv.ParseFloat(resp.GrossAmount, 64)

	return &Payment{
		GatewayPaymentID:  resp.OrderID,
		Status:            resp.TransactionStatus,
		StatusDetail:      resp.StatusMessage,
		Amount:            amount,
		Currency:          resp.Currency,
		ExternalReference: resp.OrderID,
		PaymentMethod:     resp.PaymentType,
	}, nil
}

// MapStatus translates Midtrans' transaction_status vocabulary into the
// canonical one.
func (g *Midtrans) MapStatus(raw string) models.PaymentStatus {
	switch raw {
	case "settlement", "capture":
		return models.PaymentStatusSucceeded
	case "pending":
		return models.PaymentStatusPending
	case "deny", "failure":
		return models.PaymentStatusFailed
	case "cancel", "expire":
		return models.PaymentStatusCanceled
	case "refund", "partial_refund":
		return models.PaymentStatusRefunded
	default:
		return models.PaymentStatusUnknown
	}
}

func (g *Midtrans) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	_ = ctx

	param := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: int64(req.Amount),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.PayerName,
			Email: req.PayerEmail,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    req.OrderID,
			Name:  req.Title,
			Price: int64(req.Amount),
			Qty:   1,
		}},
	}
	if req.SuccessURL != "" {
		param.Callbacks = &snap.Callbacks{Finish: req.SuccessURL}
	}

	resp, err := g.snapClient.CreateTransaction(param)
	if err != nil {
		return nil, fmt.Errorf("midtrans: create transaction: %w", err)
	}

	return &CheckoutSession{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		GatewayRef:  req.OrderID,
	}, nil
}
