package stripex

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/ports"
)

// Verifier checks webhook signatures against the endpoint signing secret.
type Verifier struct {
	signingSecret string
}

var _ ports.WebhookVerifier = (*Verifier)(nil)

func NewVerifier(signingSecret string) *Verifier {
	return &Verifier{signingSecret: signingSecret}
}

func (v *Verifier) Verify(payload []byte, signature string) (ports.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, v.signingSecret)
	if err != nil {
		return ports.WebhookEvent{}, fmt.Errorf("stripe: verify webhook: %w", err)
	}

	out := ports.WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if out.Type == ports.EventCheckoutSessionCompleted {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return ports.WebhookEvent{}, fmt.Errorf("stripe: decode session payload: %w", err)
		}
		out.Session = *mapSession(&session)
	}

	return out, nil
}
