package entity

// CartItem is a single client-submitted cart entry. The cart is an ordered
// list; line items are emitted in the same order the entries arrive.
type CartItem struct {
	ProductID string `json:"id"`
	Quantity  int64  `json:"quantity"`
}

// User identifies the customer initiating a checkout. The id is attached to
// the provider session as the client reference for later correlation.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
