package ports

import (
	"context"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/domain/entity"
)

// Catalog is the read side of the product collection. The validator treats
// its output as the authoritative inventory.
type Catalog interface {
	ListProducts(ctx context.Context) ([]entity.Product, error)
	GetProducts(ctx context.Context, ids []string) ([]entity.Product, error)
}
