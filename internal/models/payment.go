package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentGateway identifies the external payment processor a payment
// belongs to.
type PaymentGateway string

const (
	PaymentGatewayMercadoPago PaymentGateway = "mercadopago"
	PaymentGatewayMidtrans    PaymentGateway = "midtrans"
)

// PaymentStatus is the canonical payment-status vocabulary, independent
// of any gateway's native vocabulary.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCanceled  PaymentStatus = "canceled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusUnknown   PaymentStatus = "unknown"
)

// Metadata keys written by checkout initiation and the reconciler.
const (
	MetaGatewayPaymentID = "gateway_payment_id"
	MetaStatusDetail     = "status_detail"
	MetaPaymentMethod    = "payment_method"
	MetaInstallments     = "installments"
	MetaCheckoutToken    = "checkout_token"
	MetaCheckoutURL      = "checkout_url"
)

// CanTransition reports whether a stored status may be replaced by next.
// Equal statuses never transition (duplicate notifications are no-ops),
// and a settled payment never goes back to pending even if the gateway
// later reports a stale state. Payments parked in unknown can still be
// corrected. The conditional UPDATE in the payment repository encodes
// the same rule; keep the two in sync.
func CanTransition(current, next PaymentStatus) bool {
	if current == next {
		return false
	}
	if next == PaymentStatusPending && current != PaymentStatusUnknown {
		return false
	}
	return true
}

// Payment records a single checkout attempt against a gateway. Created
// pending when the checkout is initiated, mutated only by the
// reconciler afterwards, never deleted.
//
// The metadata blob carries the gateway correlation fields
// (gateway_payment_id, status detail, payment method, installments).
// For a given gateway at most one payment holds a given
// gateway_payment_id.
type Payment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID            uint                   `gorm:"index" json:"user_id"`
	CourseID          uint                   `gorm:"index" json:"course_id"`
	Amount            float64                `gorm:"type:decimal(15,2)" json:"amount"`
	Currency          string                 `gorm:"type:varchar(10)" json:"currency"`
	Status            PaymentStatus          `gorm:"type:varchar(20);index" json:"status"`
	Gateway           PaymentGateway         `gorm:"type:varchar(50);index" json:"gateway"`
	ExternalReference string                 `gorm:"type:varchar(100);index" json:"external_reference"`
	Metadata          map[string]interface{} `gorm:"serializer:json;type:jsonb" json:"metadata"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

// GatewayPaymentID returns the gateway's payment id from metadata, or ""
// when the gateway has not reported one yet.
func (p Payment) GatewayPaymentID() string {
	if p.Metadata == nil {
		return ""
	}
	if id, ok := p.Metadata[MetaGatewayPaymentID].(string); ok {
		return id
	}
	return ""
}
