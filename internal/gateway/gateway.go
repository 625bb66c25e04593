// Package gateway abstracts the external payment processors behind a
// single port so the reconciler and checkout flow stay
// provider-agnostic.
package gateway

import (
	"context"
	"errors"
	"net/http"

	"academy_app_echo/internal/models"
)

// ErrPaymentNotFound is returned by FetchPayment when the gateway does
// not know the resource. Common for test pings; the reconciler
// classifies it as ignorable, not as an error.
var ErrPaymentNotFound = errors.New("gateway: payment resource not found")

// Notification is the normalized form of a gateway's webhook envelope.
// Webhook payloads are treated as untrusted pointers: only the resource
// id is taken from them, the actual payment state is re-fetched from
// the gateway's read API.
type Notification struct {
	// Kind is the raw envelope type, e.g. "payment". Non-payment kinds
	// are recorded for observability and ignored.
	Kind string
	// Action is the normalized envelope action ("created", "updated" or
	// "" when the gateway does not distinguish).
	Action string
	// ResourceID identifies the payment resource at the gateway.
	ResourceID string
}

// Payment is the authoritative payment state read back from a gateway.
type Payment struct {
	GatewayPaymentID  string
	Status            string
	StatusDetail      string
	Amount            float64
	Currency          string
	ExternalReference string
	PaymentMethod     string
	Installments      int
}

// CheckoutRequest describes a checkout session to create.
type CheckoutRequest struct {
	OrderID     string
	Amount      float64
	Currency    string
	Title       string
	PayerName   string
	PayerEmail  string
	SuccessURL  string
	CallbackURL string
}

// CheckoutSession is the gateway's answer to a checkout request.
type CheckoutSession struct {
	Token       string
	RedirectURL string
	GatewayRef  string
}

// Gateway is the payment-processor port.
type Gateway interface {
	Name() models.PaymentGateway

	// ParseNotification parses a raw webhook body. ok is false for
	// malformed or empty envelopes; those must never crash the caller.
	ParseNotification(body []byte) (n *Notification, ok bool)

	// VerifyNotification checks the inbound signature over the exact
	// wire bytes. Returns nil when the gateway has no secret
	// configured.
	VerifyNotification(body []byte, headers http.Header) error

	// FetchPayment reads the authoritative payment resource.
	FetchPayment(ctx context.Context, resourceID string) (*Payment, error)

	// MapStatus translates the gateway-native status vocabulary into
	// the canonical one. Unmapped values resolve to unknown.
	MapStatus(raw string) models.PaymentStatus

	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// Registry maps gateway names to implementations.
type Registry map[models.PaymentGateway]Gateway

// Lookup returns the gateway registered under name.
func (r Registry) Lookup(name models.PaymentGateway) (Gateway, bool) {
	g, ok := r[name]
	return g, ok
}
