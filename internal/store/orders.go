package store

import (
	"context"
	"fmt"
	"time"

	"shop-service/internal/models"
)

// CreateOrderFromCart inserts the order with its snapshot items and empties
// the cart inside one transaction: either the order exists and the cart is
// empty, or neither happened.
func (s *Store) CreateOrderFromCart(ctx context.Context, order *models.Order, cartID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, order, `
		INSERT INTO orders (order_number, user_id, address, status, total_qty, total_cost)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		order.OrderNumber, order.UserID, order.Address, order.Status, order.TotalQty, order.TotalCost)
	if err != nil {
		return translateErr(err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := tx.GetContext(ctx, &item.ID, `
			INSERT INTO order_items (order_id, product_id, title, product_code, qty, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			item.OrderID, item.ProductID, item.Title, item.ProductCode, item.Qty, item.UnitPrice, item.Subtotal)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE carts SET total_qty = 0, total_cost = 0, updated_at = NOW() WHERE id = $1", cartID)
	if err != nil {
		return fmt.Errorf("reset cart totals: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order with its snapshot items
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, translateErr(err)
	}
	if err := s.db.SelectContext(ctx, &order.Items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", id); err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	return &order, nil
}

// GetOrdersByUserID retrieves a user's orders, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64, page, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListOrders retrieves all orders for the admin listing, optionally filtered
// by status
func (s *Store) ListOrders(ctx context.Context, status string, page, limit int) ([]models.Order, error) {
	var orders []models.Order
	var err error
	if status != "" {
		err = s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
			status, limit, (page-1)*limit)
	} else {
		err = s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2",
			limit, (page-1)*limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// MarkOrderPaid advances the order to PAID and records payment metadata
func (s *Store) MarkOrderPaid(ctx context.Context, orderID, txID int64, refID string, paidAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, payment_method = $2, payment_tx_id = $3, payment_ref_id = $4, paid_at = $5, updated_at = NOW()
		WHERE id = $6`,
		models.OrderStatusPaid, models.PaymentMethodZarinpal, txID, refID, paidAt, orderID)
	return translateErr(err)
}
