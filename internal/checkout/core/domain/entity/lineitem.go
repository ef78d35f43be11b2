package entity

// Currency is fixed for the whole store; the provider receives every line
// item priced in it.
const Currency = "AUD"

// LineItem is the provider-facing projection of one validated cart entry.
// The JSON shape mirrors the provider's checkout line item contract.
type LineItem struct {
	Quantity  int64     `json:"quantity"`
	PriceData PriceData `json:"price_data"`
}

type PriceData struct {
	Currency    string      `json:"currency"`
	UnitAmount  int64       `json:"unit_amount"`
	ProductData ProductData `json:"product_data"`
}

// ProductData carries the catalog fields the provider displays on the hosted
// payment page. Metadata always holds the internal product id under "id" so
// the sale recorder can map provider line items back to catalog records.
type ProductData struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Images      []string          `json:"images,omitempty"`
	Metadata    map[string]string `json:"metadata"`
}
