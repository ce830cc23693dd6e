package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("order belongs to another user")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrStatusNotAllowed  = errors.New("order status cannot move backwards")
)

// OrderStore is the persistence surface the order service needs
type OrderStore interface {
	GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	CreateOrderFromCart(ctx context.Context, order *models.Order, cartID int64) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64, page, limit int) ([]models.Order, error)
	ListOrders(ctx context.Context, status string, page, limit int) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
}

// Notifier publishes best-effort notification events
type Notifier interface {
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService converts carts into immutable orders and walks their status
// machine
type OrderService struct {
	store    OrderStore
	notifier Notifier
	logger   *zap.Logger

	// checkout and cart mutation share the per-user serialization concern;
	// the order service keeps its own keyed mutex over the same owner key
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, notifier Notifier) *OrderService {
	return &OrderService{
		store:    store,
		notifier: notifier,
		logger:   util.GetLogger(),
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (s *OrderService) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// newOrderNumber builds a short human-readable order reference
func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}

// Checkout snapshots the user's cart into a new PENDING order and empties
// the cart. The store performs both in one transaction, so either the order
// exists and the cart is empty, or neither happened.
func (s *OrderService) Checkout(ctx context.Context, userID int64, address string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Checkout")
	defer span.End()

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if len(cart.Items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}

	order := &models.Order{
		OrderNumber: newOrderNumber(),
		UserID:      userID,
		Address:     address,
		Status:      models.OrderStatusPending,
		TotalQty:    cart.TotalQty,
		TotalCost:   cart.TotalCost,
		Items:       make([]models.OrderItem, len(cart.Items)),
	}
	for i, item := range cart.Items {
		order.Items[i] = models.OrderItem{
			ProductID:   item.ProductID,
			Title:       item.Title,
			ProductCode: item.ProductCode,
			Qty:         item.Qty,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		}
	}

	if err := s.store.CreateOrderFromCart(ctx, order, cart.ID); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total_cost", order.TotalCost))
	return order, nil
}

// GetOrder retrieves an order, enforcing ownership for non-admins
func (s *OrderService) GetOrder(ctx context.Context, orderID int64, user *models.User) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != user.ID && !user.IsAdmin {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

// ListUserOrders retrieves the user's own orders
func (s *OrderService) ListUserOrders(ctx context.Context, userID int64, page, limit int) ([]models.Order, error) {
	page, limit = normalizePage(page, limit)
	return s.store.GetOrdersByUserID(ctx, userID, page, limit)
}

// ListAllOrders retrieves all orders for the admin listing
func (s *OrderService) ListAllOrders(ctx context.Context, status string, page, limit int) ([]models.Order, error) {
	if status != "" && !models.ValidOrderStatus(status) {
		return nil, ErrInvalidStatus
	}
	page, limit = normalizePage(page, limit)
	return s.store.ListOrders(ctx, status, page, limit)
}

// UpdateStatus advances an order to a new status and publishes a
// notification. Transitions are one-directional.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, ErrInvalidStatus
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !models.CanTransitionOrder(order.Status, status) {
		return nil, ErrStatusNotAllowed
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = status
	util.OrderStatusChangesTotal.WithLabelValues(status).Inc()

	s.publishStatusChange(ctx, order)
	return order, nil
}

// MarkDelivered advances an order to DELIVERED
func (s *OrderService) MarkDelivered(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.UpdateStatus(ctx, orderID, models.OrderStatusDelivered)
}

// publishStatusChange emits a best-effort notification; failures are logged
// and swallowed so they never fail the triggering operation.
func (s *OrderService) publishStatusChange(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      order.Status,
	}
	if err := s.notifier.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
