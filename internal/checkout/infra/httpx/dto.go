package httpx

import (
	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/domain/entity"
)

// CreateCheckoutSessionRequest mirrors the storefront's checkout payload.
// cartItems is an ordered list; line items are submitted to the provider in
// this order.
type CreateCheckoutSessionRequest struct {
	CartItems []entity.CartItem `json:"cartItems"`
	User      entity.User       `json:"user"`
}

// DirectCheckoutRequest is the trusted non-provider sale payload.
type DirectCheckoutRequest struct {
	User     string            `json:"user"`
	Products []entity.SaleItem `json:"products"`
}

// WebhookAck is the body the provider expects for every delivered event.
type WebhookAck struct {
	Received bool `json:"received"`
}

// ProviderErrorResponse is the error contract of the provider-facing
// endpoints (session creation and lookup).
type ProviderErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
