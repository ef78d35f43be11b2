package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/ports"
)

type mockCatalog struct {
	products []entity.Product
	err      error
}

func (m *mockCatalog) ListProducts(context.Context) ([]entity.Product, error) {
	return m.products, m.err
}

func (m *mockCatalog) GetProducts(_ context.Context, ids []string) ([]entity.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []entity.Product
	for _, p := range m.products {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type mockSaleStore struct {
	m        sync.Mutex
	recorded []entity.Sale
	inserted []entity.Sale
	err      error
}

func (m *mockSaleStore) RecordSale(_ context.Context, sale *entity.Sale) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, existing := range m.recorded {
		if existing.SessionID == sale.SessionID {
			return false, nil
		}
	}
	m.recorded = append(m.recorded, *sale)
	return true, nil
}

func (m *mockSaleStore) InsertSale(_ context.Context, sale *entity.Sale) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.inserted = append(m.inserted, *sale)
	return nil
}

func (m *mockSaleStore) ListSales(context.Context) ([]entity.Sale, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append(append([]entity.Sale{}, m.recorded...), m.inserted...), nil
}

func (m *mockSaleStore) ListUserSales(_ context.Context, userID string) ([]entity.Sale, error) {
	all, err := m.ListSales(context.Background())
	if err != nil {
		return nil, err
	}
	var out []entity.Sale
	for _, s := range all {
		if s.User == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockProvider struct {
	m sync.Mutex

	createCalls  int
	createParams entity.CheckoutParams
	createErr    error

	session   *entity.CheckoutSession
	lineItems []entity.SessionLineItem
	products  map[string]*entity.ProviderProduct
}

func (m *mockProvider) CreateCheckoutSession(_ context.Context, params entity.CheckoutParams) (*entity.CheckoutSession, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.createCalls++
	m.createParams = params
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &entity.CheckoutSession{ID: "cs_test_123", ClientReferenceID: params.User.ID}, nil
}

func (m *mockProvider) GetCheckoutSession(_ context.Context, sessionID string) (*entity.CheckoutSession, error) {
	if m.session == nil {
		return nil, errors.New("no such session")
	}
	return m.session, nil
}

func (m *mockProvider) ListLineItems(context.Context, string) ([]entity.SessionLineItem, error) {
	return m.lineItems, nil
}

func (m *mockProvider) GetProduct(_ context.Context, id string) (*entity.ProviderProduct, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, errors.New("no such product")
	}
	return p, nil
}

type mockInvalidator struct {
	m     sync.Mutex
	calls int
}

func (m *mockInvalidator) Invalidate(context.Context) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
}

func newTestService(catalog *mockCatalog, store *mockSaleStore, provider *mockProvider, inv CatalogInvalidator, production bool) *CheckoutService {
	return NewCheckoutService(catalog, store, provider, inv, Config{Production: production})
}

func TestCreateCheckoutSession_SubmitsValidatedLineItems(t *testing.T) {
	catalog := &mockCatalog{products: []entity.Product{{ID: "p1", Name: "Beans", Price: 10}}}
	provider := &mockProvider{}
	svc := newTestService(catalog, &mockSaleStore{}, provider, nil, false)

	session, err := svc.CreateCheckoutSession(context.Background(),
		[]entity.CartItem{{ProductID: "p1", Quantity: 2}},
		entity.User{ID: "u1", Email: "u1@example.com"},
		"https://shop.example.com",
	)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", session.ID)

	require.Equal(t, 1, provider.createCalls)
	require.Len(t, provider.createParams.LineItems, 1)
	assert.Equal(t, int64(1000), provider.createParams.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "u1", provider.createParams.User.ID)
}

func TestCreateCheckoutSession_UnknownProductSkipsProvider(t *testing.T) {
	catalog := &mockCatalog{products: []entity.Product{{ID: "p1", Name: "Beans", Price: 10}}}
	provider := &mockProvider{}
	svc := newTestService(catalog, &mockSaleStore{}, provider, nil, false)

	_, err := svc.CreateCheckoutSession(context.Background(),
		[]entity.CartItem{{ProductID: "ghost", Quantity: 1}},
		entity.User{ID: "u1"}, "https://shop.example.com",
	)

	require.ErrorIs(t, err, ErrUnknownProduct)
	assert.Zero(t, provider.createCalls, "provider must not be called for an invalid cart")
}

func TestCreateCheckoutSession_OriginFallbackOutsideProduction(t *testing.T) {
	catalog := &mockCatalog{products: []entity.Product{{ID: "p1", Name: "Beans", Price: 10}}}
	provider := &mockProvider{}
	svc := newTestService(catalog, &mockSaleStore{}, provider, nil, false)

	_, err := svc.CreateCheckoutSession(context.Background(),
		[]entity.CartItem{{ProductID: "p1", Quantity: 1}},
		entity.User{ID: "u1"}, "https://evil.example.com",
	)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3001/result?session_id={CHECKOUT_SESSION_ID}", provider.createParams.SuccessURL)
	assert.Equal(t, "http://localhost:3001", provider.createParams.CancelURL)
}

func TestCreateCheckoutSession_HonoursOriginInProduction(t *testing.T) {
	catalog := &mockCatalog{products: []entity.Product{{ID: "p1", Name: "Beans", Price: 10}}}
	provider := &mockProvider{}
	svc := newTestService(catalog, &mockSaleStore{}, provider, nil, true)

	_, err := svc.CreateCheckoutSession(context.Background(),
		[]entity.CartItem{{ProductID: "p1", Quantity: 1}},
		entity.User{ID: "u1"}, "https://shop.example.com",
	)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/result?session_id={CHECKOUT_SESSION_ID}", provider.createParams.SuccessURL)
	assert.Equal(t, "https://shop.example.com", provider.createParams.CancelURL)
}

func confirmedSessionProvider() *mockProvider {
	return &mockProvider{
		session: &entity.CheckoutSession{ID: "cs_done", ClientReferenceID: "u42"},
		lineItems: []entity.SessionLineItem{
			{ID: "li_1", Quantity: 2, UnitAmount: 1000, ProviderProductID: "prod_A"},
			{ID: "li_2", Quantity: 1, UnitAmount: 400, ProviderProductID: "prod_B"},
		},
		products: map[string]*entity.ProviderProduct{
			"prod_A": {ID: "prod_A", Name: "Beans", Metadata: map[string]string{"id": "p1"}},
			"prod_B": {ID: "prod_B", Name: "Mug", Metadata: map[string]string{"id": "p2"}},
		},
	}
}

func TestRecordConfirmedSale_BuildsSaleFromProviderData(t *testing.T) {
	store := &mockSaleStore{}
	inv := &mockInvalidator{}
	svc := newTestService(&mockCatalog{}, store, confirmedSessionProvider(), inv, false)

	created, err := svc.RecordConfirmedSale(context.Background(), "cs_done")
	require.NoError(t, err)
	assert.True(t, created)

	require.Len(t, store.recorded, 1)
	sale := store.recorded[0]
	assert.Equal(t, "cs_done", sale.SessionID)
	assert.Equal(t, "u42", sale.User)
	require.Len(t, sale.Products, 2)
	assert.Equal(t, entity.SaleItem{Item: "p1", Qty: 2, Price: 1000}, sale.Products[0])
	assert.Equal(t, entity.SaleItem{Item: "p2", Qty: 1, Price: 400}, sale.Products[1])

	assert.Equal(t, 1, inv.calls, "catalog cache must be invalidated after decrements")
}

func TestRecordConfirmedSale_DuplicateDeliveryIsNoOp(t *testing.T) {
	store := &mockSaleStore{}
	inv := &mockInvalidator{}
	svc := newTestService(&mockCatalog{}, store, confirmedSessionProvider(), inv, false)

	created, err := svc.RecordConfirmedSale(context.Background(), "cs_done")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.RecordConfirmedSale(context.Background(), "cs_done")
	require.NoError(t, err)
	assert.False(t, created)

	assert.Len(t, store.recorded, 1, "redelivery must not create a second sale")
	assert.Equal(t, 1, inv.calls, "redelivery must not invalidate again")
}

func TestRecordConfirmedSale_ConcurrentDuplicateDelivery(t *testing.T) {
	store := &mockSaleStore{}
	svc := newTestService(&mockCatalog{}, store, confirmedSessionProvider(), nil, false)

	const deliveries = 8
	results := make(chan bool, deliveries)
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := svc.RecordConfirmedSale(context.Background(), "cs_done")
			assert.NoError(t, err)
			results <- created
		}()
	}
	wg.Wait()
	close(results)

	createdCount := 0
	for created := range results {
		if created {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount, "exactly one delivery may create the sale")
	assert.Len(t, store.recorded, 1)
}

func TestRecordConfirmedSale_MissingInternalID(t *testing.T) {
	provider := confirmedSessionProvider()
	provider.products["prod_A"].Metadata = nil
	store := &mockSaleStore{}
	svc := newTestService(&mockCatalog{}, store, provider, nil, false)

	_, err := svc.RecordConfirmedSale(context.Background(), "cs_done")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no internal id")
	assert.Empty(t, store.recorded, "no sale may be recorded when an id cannot be resolved")
}

func TestGetCheckoutSession_RejectsBadPrefix(t *testing.T) {
	provider := confirmedSessionProvider()
	svc := newTestService(&mockCatalog{}, &mockSaleStore{}, provider, nil, false)

	_, err := svc.GetCheckoutSession(context.Background(), "pi_not_a_session")
	require.ErrorIs(t, err, ErrInvalidSessionID)
}

func TestGetCheckoutSession_ReturnsDetails(t *testing.T) {
	svc := newTestService(&mockCatalog{}, &mockSaleStore{}, confirmedSessionProvider(), nil, false)

	details, err := svc.GetCheckoutSession(context.Background(), "cs_done")
	require.NoError(t, err)
	assert.Equal(t, "cs_done", details.CheckoutSession.ID)
	assert.Len(t, details.ListLineItems, 2)
	require.Len(t, details.ProductDetails, 2)
	assert.Equal(t, "Beans", details.ProductDetails[0].Name)
}

func TestRecordDirectSale_GeneratesReference(t *testing.T) {
	store := &mockSaleStore{}
	svc := newTestService(&mockCatalog{}, store, &mockProvider{}, nil, false)

	sale, err := svc.RecordDirectSale(context.Background(), "u7",
		[]entity.SaleItem{{Item: "p1", Qty: 1, Price: 1000}})
	require.NoError(t, err)

	assert.Equal(t, "u7", sale.User)
	assert.True(t, strings.HasPrefix(sale.SessionID, "direct_"), "direct sales get a generated reference")
	require.Len(t, store.inserted, 1)
}

func TestListSales_PopulatesProductDetails(t *testing.T) {
	catalog := &mockCatalog{products: []entity.Product{
		{ID: "p1", Name: "Beans", Price: 10, Qty: 3},
	}}
	store := &mockSaleStore{recorded: []entity.Sale{
		{ID: "s1", SessionID: "cs_1", User: "u1", Products: []entity.SaleItem{
			{Item: "p1", Qty: 2, Price: 1000},
			{Item: "gone", Qty: 1, Price: 500},
		}},
	}}
	svc := newTestService(catalog, store, &mockProvider{}, nil, false)

	sales, err := svc.ListSales(context.Background())
	require.NoError(t, err)
	require.Len(t, sales, 1)
	require.Len(t, sales[0].Products, 2)

	require.NotNil(t, sales[0].Products[0].Product)
	assert.Equal(t, "Beans", sales[0].Products[0].Product.Name)
	assert.Nil(t, sales[0].Products[1].Product, "removed products stay unpopulated")
}

func TestListUserSales_FiltersByUser(t *testing.T) {
	store := &mockSaleStore{recorded: []entity.Sale{
		{ID: "s1", SessionID: "cs_1", User: "u1"},
		{ID: "s2", SessionID: "cs_2", User: "u2"},
	}}
	svc := newTestService(&mockCatalog{}, store, &mockProvider{}, nil, false)

	sales, err := svc.ListUserSales(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "s2", sales[0].ID)
}

var _ ports.SaleStore = (*mockSaleStore)(nil)
var _ ports.Catalog = (*mockCatalog)(nil)
var _ ports.PaymentProvider = (*mockProvider)(nil)
