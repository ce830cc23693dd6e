package service

import (
	"context"
	"testing"

	"shop-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCartStore struct {
	products map[int64]*models.Product
	carts    map[int64]*models.Cart
	saves    int
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{
		products: make(map[int64]*models.Product),
		carts:    make(map[int64]*models.Cart),
	}
}

func (f *fakeCartStore) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	if cart, ok := f.carts[userID]; ok {
		return cart, nil
	}
	cart := &models.Cart{ID: userID + 100, UserID: userID}
	f.carts[userID] = cart
	return cart, nil
}

func (f *fakeCartStore) SaveCart(ctx context.Context, cart *models.Cart) error {
	f.saves++
	f.carts[cart.UserID] = cart
	return nil
}

func (f *fakeCartStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func TestCartServiceAddItem(t *testing.T) {
	store := newFakeCartStore()
	store.products[1] = &models.Product{ID: 1, Title: "Phone", Price: 50000, Available: true}
	svc := NewCartService(store)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, 7, 1)
	require.NoError(t, err)
	cart, err = svc.AddItem(ctx, 7, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, cart.TotalQty)
	assert.Equal(t, int64(100000), cart.TotalCost)
	assert.Equal(t, 2, store.saves)
}

func TestCartServiceAddUnknownProduct(t *testing.T) {
	svc := NewCartService(newFakeCartStore())

	_, err := svc.AddItem(context.Background(), 7, 42)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartServiceAddUnavailableProduct(t *testing.T) {
	store := newFakeCartStore()
	store.products[1] = &models.Product{ID: 1, Price: 50000, Available: false}
	svc := NewCartService(store)

	_, err := svc.AddItem(context.Background(), 7, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Zero(t, store.saves)
}

func TestCartServiceReduceAndRemove(t *testing.T) {
	store := newFakeCartStore()
	store.products[1] = &models.Product{ID: 1, Price: 50000, Available: true}
	store.products[2] = &models.Product{ID: 2, Price: 8000, Available: true}
	svc := NewCartService(store)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 7, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 7, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 7, 2)
	require.NoError(t, err)

	cart, err := svc.ReduceItem(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.TotalQty)
	assert.Equal(t, int64(58000), cart.TotalCost)

	cart, err = svc.RemoveItem(ctx, 7, 1)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, int64(8000), cart.TotalCost)

	_, err = svc.ReduceItem(ctx, 7, 99)
	assert.ErrorIs(t, err, ErrItemNotInCart)
	_, err = svc.RemoveItem(ctx, 7, 1)
	assert.ErrorIs(t, err, ErrItemNotInCart)
}

func TestCartServiceClear(t *testing.T) {
	store := newFakeCartStore()
	store.products[1] = &models.Product{ID: 1, Price: 50000, Available: true}
	svc := NewCartService(store)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 7, 1)
	require.NoError(t, err)

	cart, err := svc.ClearCart(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalQty)
	assert.Zero(t, cart.TotalCost)
}
