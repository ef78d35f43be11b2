package ports

import (
	"context"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/domain/entity"
)

// SaleStore persists sales and the inventory mutations they imply.
type SaleStore interface {
	// RecordSale inserts the sale and applies every qty decrement in a single
	// transaction. A sale with the same session id already on record makes the
	// whole call a no-op; created reports whether this call inserted it.
	RecordSale(ctx context.Context, sale *entity.Sale) (created bool, err error)

	// InsertSale persists a sale without touching inventory. Used by the
	// direct (non-provider) checkout path.
	InsertSale(ctx context.Context, sale *entity.Sale) error

	ListSales(ctx context.Context) ([]entity.Sale, error)
	ListUserSales(ctx context.Context, userID string) ([]entity.Sale, error)
}
