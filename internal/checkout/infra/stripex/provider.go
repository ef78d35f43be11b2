// Package stripex adapts the Stripe Go SDK to the checkout ports. All Stripe
// types stay inside this package; the application layer only sees domain
// shapes.
package stripex

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/ports"
)

type Provider struct {
	sc *client.API
}

var _ ports.PaymentProvider = (*Provider)(nil)

func NewProvider(secretKey string) *Provider {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Provider{sc: sc}
}

func (p *Provider) CreateCheckoutSession(ctx context.Context, params entity.CheckoutParams) (*entity.CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.LineItems))
	for _, li := range params.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(li.PriceData.ProductData.Name),
			Metadata: li.PriceData.ProductData.Metadata,
		}
		if li.PriceData.ProductData.Description != "" {
			productData.Description = stripe.String(li.PriceData.ProductData.Description)
		}
		if len(li.PriceData.ProductData.Images) > 0 {
			productData.Images = stripe.StringSlice(li.PriceData.ProductData.Images)
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(li.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(li.PriceData.Currency),
				UnitAmount:  stripe.Int64(li.PriceData.UnitAmount),
				ProductData: productData,
			},
		})
	}

	sessionParams := &stripe.CheckoutSessionParams{
		SubmitType:               stripe.String(string(stripe.CheckoutSessionSubmitTypePay)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:               stripe.String(params.SuccessURL),
		CancelURL:                stripe.String(params.CancelURL),
		LineItems:                lineItems,
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionAuto)),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"AU", "NZ", "US"}),
		},
		ClientReferenceID: stripe.String(params.User.ID),
		CustomerEmail:     stripe.String(params.User.Email),
	}
	sessionParams.Context = ctx

	session, err := p.sc.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	return mapSession(session), nil
}

func (p *Provider) GetCheckoutSession(ctx context.Context, sessionID string) (*entity.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	session, err := p.sc.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve checkout session %s: %w", sessionID, err)
	}

	return mapSession(session), nil
}

func (p *Provider) ListLineItems(ctx context.Context, sessionID string) ([]entity.SessionLineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx

	var items []entity.SessionLineItem
	iter := p.sc.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()
		item := entity.SessionLineItem{
			ID:          li.ID,
			Description: li.Description,
			Quantity:    li.Quantity,
		}
		if li.Price != nil {
			item.UnitAmount = li.Price.UnitAmount
			item.Currency = string(li.Price.Currency)
			if li.Price.Product != nil {
				item.ProviderProductID = li.Price.Product.ID
			}
		}
		items = append(items, item)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe: list line items for %s: %w", sessionID, err)
	}

	return items, nil
}

func (p *Provider) GetProduct(ctx context.Context, providerProductID string) (*entity.ProviderProduct, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx

	product, err := p.sc.Products.Get(providerProductID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve product %s: %w", providerProductID, err)
	}

	return &entity.ProviderProduct{
		ID:       product.ID,
		Name:     product.Name,
		Metadata: product.Metadata,
	}, nil
}

func mapSession(s *stripe.CheckoutSession) *entity.CheckoutSession {
	return &entity.CheckoutSession{
		ID:                s.ID,
		URL:               s.URL,
		ClientReferenceID: s.ClientReferenceID,
		CustomerEmail:     s.CustomerEmail,
		AmountTotal:       s.AmountTotal,
		Currency:          string(s.Currency),
		PaymentStatus:     string(s.PaymentStatus),
		Status:            string(s.Status),
	}
}
