package entity

// CheckoutSession is the provider-owned hosted payment session, mapped into
// domain shape. The id is opaque; ClientReferenceID carries the internal user
// id that was attached at creation time.
type CheckoutSession struct {
	ID                string `json:"id"`
	URL               string `json:"url,omitempty"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerEmail     string `json:"customer_email,omitempty"`
	AmountTotal       int64  `json:"amount_total"`
	Currency          string `json:"currency"`
	PaymentStatus     string `json:"payment_status"`
	Status            string `json:"status"`
}

// SessionLineItem is one line of a provider session as reported back by the
// provider. ProviderProductID references the provider's product object, not
// the internal catalog id; resolving the internal id requires a product
// metadata round-trip.
type SessionLineItem struct {
	ID                string `json:"id"`
	Description       string `json:"description"`
	Quantity          int64  `json:"quantity"`
	UnitAmount        int64  `json:"unit_amount"`
	Currency          string `json:"currency"`
	ProviderProductID string `json:"product"`
}

// ProviderProduct is the provider's own product object. Metadata["id"] holds
// the internal catalog id recorded at session creation.
type ProviderProduct struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

// CheckoutParams is everything the provider needs to open a hosted session.
type CheckoutParams struct {
	LineItems  []LineItem
	User       User
	SuccessURL string
	CancelURL  string
}
