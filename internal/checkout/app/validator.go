package app

import (
	"errors"
	"fmt"
	"math"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/domain/entity"
)

// ErrUnknownProduct is returned when a cart references a product id that is
// not in the catalog. The whole cart is rejected; there is no partial success.
var ErrUnknownProduct = errors.New("product not found")

// ValidateCart resolves each cart entry against the catalog and projects it
// into a provider line item. Output order follows the cart order. Prices are
// converted from major to minor units; description and image are copied only
// when the catalog record has them.
func ValidateCart(catalog []entity.Product, cart []entity.CartItem) ([]entity.LineItem, error) {
	byID := make(map[string]entity.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	lineItems := make([]entity.LineItem, 0, len(cart))
	for _, cartItem := range cart {
		product, ok := byID[cartItem.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, cartItem.ProductID)
		}

		item := entity.LineItem{
			Quantity: cartItem.Quantity,
			PriceData: entity.PriceData{
				Currency:   entity.Currency,
				UnitAmount: int64(math.Round(product.Price * 100)),
				ProductData: entity.ProductData{
					Name:     product.Name,
					Metadata: map[string]string{"id": product.ID},
				},
			},
		}
		if product.Description != "" {
			item.PriceData.ProductData.Description = product.Description
		}
		if product.Image != "" {
			item.PriceData.ProductData.Images = []string{product.Image}
		}

		lineItems = append(lineItems, item)
	}

	return lineItems, nil
}
