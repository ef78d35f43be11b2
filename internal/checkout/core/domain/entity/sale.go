package entity

import "time"

// SaleItem is one purchased product inside a sale. Price is the unit amount
// in minor currency units, as reported by the provider.
type SaleItem struct {
	Item  string `bson:"item" json:"item"`
	Qty   int64  `bson:"qty" json:"qty"`
	Price int64  `bson:"price" json:"price"`
}

// Sale is one completed purchase. SessionID is the provider checkout session
// that paid for it and carries a unique index, so recording the same session
// twice is a no-op. Direct (non-provider) sales get a generated reference.
type Sale struct {
	ID        string     `bson:"_id,omitempty" json:"id"`
	SessionID string     `bson:"session_id" json:"session_id"`
	User      string     `bson:"user" json:"user"`
	Products  []SaleItem `bson:"products" json:"products"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
}
