package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/ports"
)

const saleCollection = "sales"

// SaleRepository persists sales and applies the inventory decrements they
// imply. The sales collection carries a unique index on session_id, which is
// what makes RecordSale idempotent under duplicate webhook delivery.
type SaleRepository struct {
	client   *mongo.Client
	sales    *mongo.Collection
	products *mongo.Collection
}

var _ ports.SaleStore = (*SaleRepository)(nil)

func NewSaleRepository(db *mongo.Database) *SaleRepository {
	return &SaleRepository{
		client:   db.Client(),
		sales:    db.Collection(saleCollection),
		products: db.Collection(productCollection),
	}
}

// EnsureIndexes creates the session uniqueness constraint and the per-user
// query index. Call once on startup.
func (r *SaleRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.sales.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create sale indexes: %w", err)
	}
	return nil
}

// RecordSale inserts the sale and decrements each purchased product's qty in
// one transaction. A duplicate session id aborts the transaction before any
// decrement and is reported as created=false with no error.
func (r *SaleRepository) RecordSale(ctx context.Context, sale *entity.Sale) (bool, error) {
	if sale.ID == "" {
		sale.ID = primitive.NewObjectID().Hex()
	}

	session, err := r.client.StartSession()
	if err != nil {
		return false, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.sales.InsertOne(sc, sale); err != nil {
			return nil, err
		}

		for _, item := range sale.Products {
			res, err := r.products.UpdateOne(sc,
				bson.M{"_id": item.Item},
				bson.M{"$inc": bson.M{"qty": -item.Qty}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				// Product removed from the catalog after purchase. The sale
				// itself is still valid, so don't abort the transaction.
				slog.WarnContext(sc, "purchased product missing from catalog",
					"product_id", item.Item, "session_id", sale.SessionID)
			}
		}

		return nil, nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to record sale: %w", err)
	}

	return true, nil
}

func (r *SaleRepository) InsertSale(ctx context.Context, sale *entity.Sale) error {
	if sale.ID == "" {
		sale.ID = primitive.NewObjectID().Hex()
	}

	if _, err := r.sales.InsertOne(ctx, sale); err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}
	return nil
}

func (r *SaleRepository) ListSales(ctx context.Context) ([]entity.Sale, error) {
	return r.find(ctx, bson.D{})
}

func (r *SaleRepository) ListUserSales(ctx context.Context, userID string) ([]entity.Sale, error) {
	return r.find(ctx, bson.M{"user": userID})
}

func (r *SaleRepository) find(ctx context.Context, filter interface{}) ([]entity.Sale, error) {
	cursor, err := r.sales.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	var sales []entity.Sale
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, fmt.Errorf("failed to decode sales: %w", err)
	}

	return sales, nil
}
