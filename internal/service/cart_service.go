package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"shop-service/internal/models"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

var ErrItemNotInCart = errors.New("product is not in the cart")

// CartStore is the persistence surface the cart service needs
type CartStore interface {
	GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// CartService maintains the single active cart per user. Mutations are
// serialized per user id: every operation is a locked read-modify-write
// that persists the cart document in full.
type CartService struct {
	store  CartStore
	logger *zap.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewCartService creates a new cart service
func NewCartService(store CartStore) *CartService {
	return &CartService{
		store:  store,
		logger: util.GetLogger(),
		locks:  make(map[int64]*sync.Mutex),
	}
}

// userLock returns the mutex serializing cart mutations for a user
func (s *CartService) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// GetCart returns the user's cart, creating an empty one on first use
func (s *CartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	return s.store.GetOrCreateCart(ctx, userID)
}

// AddItem adds one unit of the product to the user's cart
func (s *CartService) AddItem(ctx context.Context, userID, productID int64) (*models.Cart, error) {
	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !product.Available {
		return nil, ErrProductNotFound
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.AddItem(product)
	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.logger.Debug("Cart item added",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("total_qty", cart.TotalQty))
	return cart, nil
}

// ReduceItem removes one unit of the product from the user's cart, dropping
// the line when it reaches zero
func (s *CartService) ReduceItem(ctx context.Context, userID, productID int64) (*models.Cart, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cart.ReduceByOne(productID) {
		return nil, ErrItemNotInCart
	}
	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// RemoveItem drops the whole line for the product from the user's cart
func (s *CartService) RemoveItem(ctx context.Context, userID, productID int64) (*models.Cart, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cart.RemoveItem(productID) {
		return nil, ErrItemNotInCart
	}
	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// ClearCart empties the user's cart
func (s *CartService) ClearCart(ctx context.Context, userID int64) (*models.Cart, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Empty()
	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}
