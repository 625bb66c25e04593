package handlers

// CreateSubscriptionRequest is the admin payload for registering a
// webhook endpoint.
type CreateSubscriptionRequest struct {
	Name      string   `json:"name" validate:"required,max=255"`
	URL       string   `json:"url" validate:"required,url"`
	Events    []string `json:"events" validate:"required,min=1,dive,required"`
	IsActive  *bool    `json:"is_active"`
	SecretKey string   `json:"secret_key"`
}

// UpdateSubscriptionRequest carries partial updates; nil fields are
// left untouched.
type UpdateSubscriptionRequest struct {
	Name      *string   `json:"name" validate:"omitempty,max=255"`
	URL       *string   `json:"url" validate:"omitempty,url"`
	Events    *[]string `json:"events" validate:"omitempty,min=1,dive,required"`
	IsActive  *bool     `json:"is_active"`
	SecretKey *string   `json:"secret_key"`
}

// CheckoutRequest selects the gateway for a course purchase.
type CheckoutRequest struct {
	Gateway string `json:"gateway" validate:"required,oneof=mercadopago midtrans"`
}
