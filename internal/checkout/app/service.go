package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/ports"
)

// devOrigin is the redirect target used outside production mode, where the
// browser origin header cannot be trusted to point at a deployed frontend.
const devOrigin = "http://localhost:3001"

// ErrInvalidSessionID rejects checkout-session lookups whose id does not
// carry the provider's session prefix.
var ErrInvalidSessionID = errors.New("incorrect checkout session id")

// CatalogInvalidator drops cached catalog state after inventory mutations.
// May be nil, in which case invalidation is skipped.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context)
}

// Config carries the runtime flags the service needs.
type Config struct {
	// Production controls whether the request origin header is honoured for
	// success/cancel redirect URLs.
	Production bool
}

// CheckoutService orchestrates cart validation, provider session creation,
// confirmed-sale recording, and sale queries. All collaborators are injected.
type CheckoutService struct {
	catalog     ports.Catalog
	sales       ports.SaleStore
	provider    ports.PaymentProvider
	invalidator CatalogInvalidator
	cfg         Config
}

func NewCheckoutService(
	catalog ports.Catalog,
	sales ports.SaleStore,
	provider ports.PaymentProvider,
	invalidator CatalogInvalidator,
	cfg Config,
) *CheckoutService {
	return &CheckoutService{
		catalog:     catalog,
		sales:       sales,
		provider:    provider,
		invalidator: invalidator,
		cfg:         cfg,
	}
}

// CreateCheckoutSession validates the cart against the live catalog and asks
// the provider for a hosted payment session. A cart referencing an unknown
// product id fails before any provider call is made.
func (s *CheckoutService) CreateCheckoutSession(
	ctx context.Context,
	cart []entity.CartItem,
	user entity.User,
	origin string,
) (*entity.CheckoutSession, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	lineItems, err := ValidateCart(products, cart)
	if err != nil {
		return nil, err
	}

	if !s.cfg.Production {
		origin = devOrigin
	}

	session, err := s.provider.CreateCheckoutSession(ctx, entity.CheckoutParams{
		LineItems:  lineItems,
		User:       user,
		SuccessURL: origin + "/result?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  origin,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	slog.InfoContext(ctx, "checkout session created",
		"session_id", session.ID, "user_id", user.ID, "line_items", len(lineItems))

	return session, nil
}

// SessionDetails is the read model for one provider session: the session
// itself, its line items, and the provider product object behind each line.
type SessionDetails struct {
	CheckoutSession *entity.CheckoutSession  `json:"checkoutSession"`
	ListLineItems   []entity.SessionLineItem `json:"listLineItems"`
	ProductDetails  []entity.ProviderProduct `json:"productDetails"`
}

// GetCheckoutSession fetches a session and its line items from the provider.
// The id must carry the provider's "cs_" prefix.
func (s *CheckoutService) GetCheckoutSession(ctx context.Context, sessionID string) (*SessionDetails, error) {
	if !strings.HasPrefix(sessionID, "cs_") {
		return nil, ErrInvalidSessionID
	}

	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}

	lineItems, err := s.provider.ListLineItems(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}

	details := make([]entity.ProviderProduct, 0, len(lineItems))
	for _, li := range lineItems {
		product, err := s.provider.GetProduct(ctx, li.ProviderProductID)
		if err != nil {
			return nil, fmt.Errorf("retrieve provider product %s: %w", li.ProviderProductID, err)
		}
		details = append(details, *product)
	}

	return &SessionDetails{
		CheckoutSession: session,
		ListLineItems:   lineItems,
		ProductDetails:  details,
	}, nil
}

// RecordConfirmedSale persists the sale for a completed checkout session and
// decrements inventory, exactly once per session.
//
// The session and its line items are re-fetched from the provider rather than
// trusted from the webhook payload, and each internal product id is resolved
// through the provider product's metadata. The store applies the sale insert
// and all decrements in one transaction keyed by the session id, so duplicate
// or concurrent deliveries of the same session record nothing further.
// created reports whether this call inserted the sale.
func (s *CheckoutService) RecordConfirmedSale(ctx context.Context, sessionID string) (created bool, err error) {
	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("retrieve checkout session: %w", err)
	}

	lineItems, err := s.provider.ListLineItems(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("list line items: %w", err)
	}

	saleItems := make([]entity.SaleItem, 0, len(lineItems))
	for _, li := range lineItems {
		product, err := s.provider.GetProduct(ctx, li.ProviderProductID)
		if err != nil {
			return false, fmt.Errorf("retrieve provider product %s: %w", li.ProviderProductID, err)
		}
		itemID, ok := product.Metadata["id"]
		if !ok || itemID == "" {
			return false, fmt.Errorf("provider product %s carries no internal id", product.ID)
		}
		saleItems = append(saleItems, entity.SaleItem{
			Item:  itemID,
			Qty:   li.Quantity,
			Price: li.UnitAmount,
		})
	}

	sale := &entity.Sale{
		SessionID: session.ID,
		User:      session.ClientReferenceID,
		Products:  saleItems,
		CreatedAt: time.Now().UTC(),
	}

	created, err = s.sales.RecordSale(ctx, sale)
	if err != nil {
		return false, fmt.Errorf("record sale for session %s: %w", session.ID, err)
	}

	if !created {
		slog.InfoContext(ctx, "sale already recorded, skipping", "session_id", session.ID)
		return false, nil
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}

	slog.InfoContext(ctx, "sale recorded",
		"session_id", session.ID, "user_id", sale.User, "items", len(saleItems))

	return true, nil
}

// RecordDirectSale persists a client-submitted sale without payment
// verification. The trusted direct path shares the session uniqueness key via
// a generated reference.
func (s *CheckoutService) RecordDirectSale(ctx context.Context, userID string, products []entity.SaleItem) (*entity.Sale, error) {
	sale := &entity.Sale{
		SessionID: "direct_" + uuid.NewString(),
		User:      userID,
		Products:  products,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.sales.InsertSale(ctx, sale); err != nil {
		return nil, fmt.Errorf("insert sale: %w", err)
	}

	slog.InfoContext(ctx, "direct sale recorded", "sale_id", sale.ID, "user_id", userID)

	return sale, nil
}

// PopulatedSaleItem is a sale line joined with its catalog product, when the
// product still exists.
type PopulatedSaleItem struct {
	Item    string          `json:"item"`
	Qty     int64           `json:"qty"`
	Price   int64           `json:"price"`
	Product *entity.Product `json:"product,omitempty"`
}

type PopulatedSale struct {
	ID        string              `json:"id"`
	SessionID string              `json:"session_id"`
	User      string              `json:"user"`
	Products  []PopulatedSaleItem `json:"products"`
	CreatedAt time.Time           `json:"created_at"`
}

// ListSales returns every sale with product details joined in.
func (s *CheckoutService) ListSales(ctx context.Context) ([]PopulatedSale, error) {
	sales, err := s.sales.ListSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return s.populate(ctx, sales)
}

// ListUserSales returns one user's sales with product details joined in.
func (s *CheckoutService) ListUserSales(ctx context.Context, userID string) ([]PopulatedSale, error) {
	sales, err := s.sales.ListUserSales(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sales for user %s: %w", userID, err)
	}
	return s.populate(ctx, sales)
}

func (s *CheckoutService) populate(ctx context.Context, sales []entity.Sale) ([]PopulatedSale, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, sale := range sales {
		for _, item := range sale.Products {
			if _, ok := seen[item.Item]; !ok {
				seen[item.Item] = struct{}{}
				ids = append(ids, item.Item)
			}
		}
	}

	byID := make(map[string]entity.Product, len(ids))
	if len(ids) > 0 {
		products, err := s.catalog.GetProducts(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load products for sales: %w", err)
		}
		for _, p := range products {
			byID[p.ID] = p
		}
	}

	out := make([]PopulatedSale, 0, len(sales))
	for _, sale := range sales {
		ps := PopulatedSale{
			ID:        sale.ID,
			SessionID: sale.SessionID,
			User:      sale.User,
			Products:  make([]PopulatedSaleItem, 0, len(sale.Products)),
			CreatedAt: sale.CreatedAt,
		}
		for _, item := range sale.Products {
			pi := PopulatedSaleItem{Item: item.Item, Qty: item.Qty, Price: item.Price}
			if p, ok := byID[item.Item]; ok {
				product := p
				pi.Product = &product
			}
			ps.Products = append(ps.Products, pi)
		}
		out = append(out, ps)
	}

	return out, nil
}
