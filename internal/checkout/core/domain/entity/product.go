package entity

// Product is one record in the catalog collection. Price is stored in major
// currency units; the cart validator converts it to minor units when building
// provider line items. Qty is decremented in place when a sale is recorded.
type Product struct {
	ID          string  `bson:"_id,omitempty" json:"id"`
	Name        string  `bson:"name" json:"name"`
	Price       float64 `bson:"price" json:"price"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	Image       string  `bson:"image,omitempty" json:"image,omitempty"`
	Qty         int64   `bson:"qty" json:"qty"`
}
