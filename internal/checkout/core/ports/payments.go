package ports

import (
	"context"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/domain/entity"
)

// PaymentProvider is the outbound port to the hosted-checkout provider.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, params entity.CheckoutParams) (*entity.CheckoutSession, error)

	// GetCheckoutSession re-fetches the authoritative session by id. The sale
	// recorder uses this instead of trusting webhook payload contents.
	GetCheckoutSession(ctx context.Context, sessionID string) (*entity.CheckoutSession, error)

	ListLineItems(ctx context.Context, sessionID string) ([]entity.SessionLineItem, error)

	// GetProduct fetches the provider's product object; its metadata carries
	// the internal catalog id.
	GetProduct(ctx context.Context, providerProductID string) (*entity.ProviderProduct, error)
}

// EventCheckoutSessionCompleted is the only provider event type that
// triggers sale recording; every other type is acknowledged and ignored.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// WebhookEvent is a provider event that passed signature verification.
// Session is populated for checkout-session lifecycle events.
type WebhookEvent struct {
	ID      string
	Type    string
	Session entity.CheckoutSession
}

// WebhookVerifier checks the signature header of an inbound provider event
// against the shared signing secret. Unverified payloads must never reach
// the sale recorder.
type WebhookVerifier interface {
	Verify(payload []byte, signature string) (WebhookEvent, error)
}
